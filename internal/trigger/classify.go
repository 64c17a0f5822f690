package trigger

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// Invocation classes, in the order they are evaluated.
const (
	InvocationScheduled = "scheduled"
	InvocationAutomated = "automated"
	InvocationManual    = "manual"
	InvocationDenied    = "denied"
)

// Secrets are the shared tokens accepted for manual invocations. Either one
// authorizes a run; comparison is constant-time.
type Secrets struct {
	Cron  string
	Admin string
}

// AllowAutomated opts in to trusting the platform scheduler headers without a
// token. Off by default: a spoofable header alone never authorizes a run
// unless the operator explicitly enabled the bypass.
type Policy struct {
	Secrets        Secrets
	AllowAutomated bool
}

// Classify decides how a request is allowed to trigger a job. Classification
// happens before any pipeline stage runs: a denied request costs nothing but
// this function.
//
// Order matters: an explicit token always wins, then the in-process scheduler
// marker, then (only when opted in) the platform scheduler headers.
func Classify(r *http.Request, p Policy) string {
	if token := requestToken(r); token != "" {
		if tokenMatches(token, p.Secrets.Cron) || tokenMatches(token, p.Secrets.Admin) {
			return InvocationManual
		}
		return InvocationDenied
	}

	if r.Header.Get("X-Internal-Trigger") == "cron" || schedulerAgent(r) {
		return InvocationScheduled
	}

	if p.AllowAutomated && automatedPlatform(r) {
		return InvocationAutomated
	}

	return InvocationDenied
}

// Allowed reports whether the class authorizes execution.
func Allowed(class string) bool {
	return class != InvocationDenied
}

func requestToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

func tokenMatches(token, secret string) bool {
	if secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(secret)) == 1
}

// schedulerAgent recognizes known external cron services by user agent or
// referer.
func schedulerAgent(r *http.Request) bool {
	ua := strings.ToLower(r.Header.Get("User-Agent"))
	if strings.Contains(ua, "cron-job.org") || strings.Contains(ua, "uptimerobot") {
		return true
	}
	return strings.Contains(strings.ToLower(r.Header.Get("Referer")), "cron-job.org")
}

// automatedPlatform recognizes the headers hosting platforms attach to their
// own cron invocations.
func automatedPlatform(r *http.Request) bool {
	if r.Header.Get("X-Appengine-Cron") == "true" {
		return true
	}
	return r.Header.Get("X-Vercel-Cron") != ""
}
