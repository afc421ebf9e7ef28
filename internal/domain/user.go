package domain

import "encoding/json"

// Role is the account role carried in the access token.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// AuthTokens is the token pair issued by the backend on login and refresh.
type AuthTokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Account is the backend's public view of a signed-in user.
type Account struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// UnmarshalJSON accepts both camelCase and snake_case token fields.
func (t *AuthTokens) UnmarshalJSON(b []byte) error {
	var aux struct {
		AccessToken       string `json:"accessToken"`
		RefreshToken      string `json:"refreshToken"`
		AccessTokenSnake  string `json:"access_token"`
		RefreshTokenSnake string `json:"refresh_token"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	t.AccessToken = firstNonEmpty(aux.AccessToken, aux.AccessTokenSnake)
	t.RefreshToken = firstNonEmpty(aux.RefreshToken, aux.RefreshTokenSnake)
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
