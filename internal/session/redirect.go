package session

import "net/url"

// LoginURL is the login page with next set to the page the user was on.
func LoginURL(loginPath, current string) string {
	if current == "" || current == loginPath {
		return loginPath
	}
	return loginPath + "?" + url.Values{"next": {current}}.Encode()
}
