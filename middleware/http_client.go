package middleware

import (
	"net/http"

	"github.com/aws/aws-xray-sdk-go/xray"
)

// GetXRayHTTPClient returns an HTTP client instrumented with X-Ray.
// Use it for outbound calls (e.g. the Turnstile verification service) so
// downstream latency shows up on the request trace.
func GetXRayHTTPClient(client *http.Client) *http.Client {
	if client == nil {
		client = &http.Client{}
	}
	return xray.Client(client)
}
