package http

import "net/http"

// headerTransport sets a fixed header on every outgoing request
type headerTransport struct {
	key       string
	value     string
	transport http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.value == "" {
		return t.transport.RoundTrip(req)
	}

	reqCopy := req.Clone(req.Context())
	reqCopy.Header.Set(t.key, t.value)

	return t.transport.RoundTrip(reqCopy)
}

// WithAuthToken sends "Authorization: Bearer <token>" when token is not empty
func WithAuthToken(token string) HttpOpts {
	if token == "" {
		return WithHeaderValue("Authorization", "")
	}
	return WithHeaderValue("Authorization", "Bearer "+token)
}

// WithAPIKey sends the key in the given header when key is not empty
func WithAPIKey(header, key string) HttpOpts {
	return WithHeaderValue(header, key)
}

func WithHeaderValue(key, value string) HttpOpts {
	return WithTransport(func(rt http.RoundTripper) http.RoundTripper {
		return &headerTransport{
			key:       key,
			value:     value,
			transport: rt,
		}
	})
}

// WithUserAgent names the calling program in every request
func WithUserAgent(agent string) HttpOpts {
	return WithHeaderValue("User-Agent", agent)
}
