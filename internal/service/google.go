package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	googleoauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/acg-climbing/sessions-api/internal/config"
)

var ErrUnverifiedEmail = errors.New("google account email is not verified")

type GoogleUser struct {
	Email string
	Name  string
}

// GoogleOAuth runs the authorization code flow and reads the signed-in
// account from the userinfo endpoint.
type GoogleOAuth struct {
	conf *oauth2.Config
}

func NewGoogleOAuth(conf *config.OAuthConfig) *GoogleOAuth {
	return &GoogleOAuth{
		conf: &oauth2.Config{
			ClientID:     conf.GoogleClientID,
			ClientSecret: conf.GoogleClientSecret,
			RedirectURL:  conf.GoogleRedirectURL,
			Endpoint:     google.Endpoint,
			Scopes: []string{
				googleoauth2.UserinfoEmailScope,
				googleoauth2.UserinfoProfileScope,
			},
		},
	}
}

func (g *GoogleOAuth) AuthCodeURL(state string) string {
	return g.conf.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

func (g *GoogleOAuth) Exchange(ctx context.Context, code string) (GoogleUser, error) {
	token, err := g.conf.Exchange(ctx, code)
	if err != nil {
		return GoogleUser{}, fmt.Errorf("g.conf.Exchange -> %w", err)
	}

	svc, err := googleoauth2.NewService(ctx, option.WithTokenSource(g.conf.TokenSource(ctx, token)))
	if err != nil {
		return GoogleUser{}, fmt.Errorf("googleoauth2.NewService -> %w", err)
	}

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return GoogleUser{}, fmt.Errorf("svc.Userinfo.Get -> %w", err)
	}
	if info.VerifiedEmail == nil || !*info.VerifiedEmail {
		return GoogleUser{}, ErrUnverifiedEmail
	}

	return GoogleUser{Email: info.Email, Name: info.Name}, nil
}
