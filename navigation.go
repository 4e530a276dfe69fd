// SPDX-License-Identifier: Apache-2.0

package safeaction

import (
	"errors"
	"fmt"
	"net/http"
)

// NavigationKind identifies which navigation a control-flow signal requests.
type NavigationKind string

const (
	NavigationRedirect     NavigationKind = "redirect"
	NavigationNotFound     NavigationKind = "notFound"
	NavigationForbidden    NavigationKind = "forbidden"
	NavigationUnauthorized NavigationKind = "unauthorized"
)

// NavigationError is a control-flow signal asking the host to navigate
// away. It is not an error from the pipeline's point of view: it is never
// logged or masked, and it is returned from the action call unchanged.
type NavigationError struct {
	Kind       NavigationKind
	URL        string
	StatusCode int
}

func (e *NavigationError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("navigation: %s to %s", e.Kind, e.URL)
	}
	return fmt.Sprintf("navigation: %s", e.Kind)
}

// Redirect signals a temporary redirect to url.
func Redirect(url string) error {
	return &NavigationError{Kind: NavigationRedirect, URL: url, StatusCode: http.StatusSeeOther}
}

// PermanentRedirect signals a permanent redirect to url.
func PermanentRedirect(url string) error {
	return &NavigationError{Kind: NavigationRedirect, URL: url, StatusCode: http.StatusPermanentRedirect}
}

// NotFound signals that the requested resource does not exist.
func NotFound() error {
	return &NavigationError{Kind: NavigationNotFound, StatusCode: http.StatusNotFound}
}

// Forbidden signals that the caller may not access the resource.
func Forbidden() error {
	return &NavigationError{Kind: NavigationForbidden, StatusCode: http.StatusForbidden}
}

// Unauthorized signals that the caller must authenticate first.
func Unauthorized() error {
	return &NavigationError{Kind: NavigationUnauthorized, StatusCode: http.StatusUnauthorized}
}

// A Classifier tells host-framework control-flow signals apart from genuine
// errors. The pipeline consults it on every error before applying its own
// error handling.
type Classifier interface {
	// IsFrameworkError reports whether err belongs to the host framework and
	// must be propagated untouched.
	IsFrameworkError(err error) bool
	// IsNavigationError reports whether err is a navigation signal.
	IsNavigationError(err error) bool
	// NavigationKind returns the kind of a navigation signal.
	NavigationKind(err error) NavigationKind
}

// DefaultClassifier recognises [*NavigationError] anywhere in an error chain.
type DefaultClassifier struct{}

func (DefaultClassifier) IsFrameworkError(err error) bool {
	return DefaultClassifier{}.IsNavigationError(err)
}

func (DefaultClassifier) IsNavigationError(err error) bool {
	var nav *NavigationError
	return errors.As(err, &nav)
}

func (DefaultClassifier) NavigationKind(err error) NavigationKind {
	var nav *NavigationError
	if errors.As(err, &nav) {
		return nav.Kind
	}
	return ""
}
