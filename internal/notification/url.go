package notification

import (
	"fmt"
	"net/url"
	"strings"

	"tracehub.io/tracehub/internal/domain"
	"tracehub.io/tracehub/internal/pkg/idcodec"
)

// Query parameters every deep link carries.
const (
	ParamNotification = "notification"
	ParamUser         = "user"
	ParamLanguage     = "language"
	ParamToken        = "token"
	ParamSalt         = "salt"
)

// actionURL joins base and path and adds the standard parameters to the
// variant's own. Standard parameters win over variant parameters of the same name.
func actionURL(base, path string, n *Notification, token *domain.ValidationToken, extra url.Values) (string, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return "", fmt.Errorf("parse base url %q: %w", base, err)
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u.Path = strings.TrimRight(u.Path, "/") + path

	q := url.Values{}
	for k, vs := range extra {
		q[k] = append([]string(nil), vs...)
	}
	q.Set(ParamNotification, idcodec.Encode(n.ID))
	q.Set(ParamUser, idcodec.Encode(n.RecipientID))
	q.Set(ParamLanguage, n.Language)
	if token != nil {
		q.Set(ParamToken, token.Key)
		q.Set(ParamSalt, idcodec.Encode(token.ID))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
