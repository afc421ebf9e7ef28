package main

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"sangihetrip/internal/apiclient"
)

func (a *adminApp) deleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <resource> <id>",
		Short: "Delete one item after confirmation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resource, err := a.checkResource(args[0])
			if err != nil {
				return err
			}
			id := args[1]

			ctx, cancel := a.withTimeout(cmd.Context())
			defer cancel()

			if !yes {
				confirm := &promptConfirmer{in: newLineReader(cmd.InOrStdin()), out: cmd.OutOrStdout()}
				if !confirm.Confirm(ctx, fmt.Sprintf("Delete %s/%s? This cannot be undone.", resource, id)) {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
					return nil
				}
			}

			_, err = a.client.Do(ctx, a.store, apiclient.Request{
				Method: http.MethodDelete,
				Path:   "/admin/" + resource + "/" + url.PathEscape(id),
				Auth:   apiclient.AuthRequired,
			}, nil)
			if err != nil {
				return a.fail("delete "+resource+"/"+id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s/%s.\n", resource, id)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}
