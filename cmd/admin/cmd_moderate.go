package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"sangihetrip/internal/apiclient"
	"sangihetrip/internal/domain"
)

func (a *adminApp) moderateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "moderate <resource> <id> <action>",
		Short: "Apply a moderation action such as approve, publish or ban",
		Example: `  sangihe-admin moderate reviews 42 approve
  sangihe-admin moderate users u-7 ban`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			resource, err := a.checkResource(args[0])
			if err != nil {
				return err
			}
			id, action := args[1], args[2]
			if !domain.AllowsAction(resource, action) {
				allowed := domain.ModerationActions(resource)
				if len(allowed) == 0 {
					return fmt.Errorf("%s cannot be moderated", resource)
				}
				return fmt.Errorf("unsupported action %q for %s, expected one of %s",
					action, resource, strings.Join(allowed, ", "))
			}

			ctx, cancel := a.withTimeout(cmd.Context())
			defer cancel()

			var updated json.RawMessage
			env, err := a.client.Do(ctx, a.store, apiclient.Request{
				Method: http.MethodPatch,
				Path:   "/admin/" + resource + "/" + url.PathEscape(id) + "/" + action,
				Auth:   apiclient.AuthRequired,
			}, &updated)
			if err != nil {
				return a.fail(action+" "+resource+"/"+id, err)
			}

			msg := fmt.Sprintf("%s %s/%s: done", action, resource, id)
			if env != nil && env.Message != "" {
				msg = env.Message
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
}
