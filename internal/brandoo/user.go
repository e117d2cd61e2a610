package brandoo

import (
	"context"
	"net/http"

	"github.com/brandoo/console/internal/models"
)

// SignIn exchanges credentials for a token and a private key. It needs no
// session.
func (c *Client) SignIn(ctx context.Context, in models.SignInRequest) (models.SignInResponse, error) {
	var out models.SignInResponse
	err := c.do(ctx, call{method: http.MethodPost, path: "user/sign-in", body: in, out: &out, anonymous: true})
	return out, err
}

// UpdateUser stores the public contact block of a user.
func (c *Client) UpdateUser(ctx context.Context, id string, info models.UserFormInfo) error {
	return c.do(ctx, call{method: http.MethodPut, path: p("user/update/", id), body: info})
}
