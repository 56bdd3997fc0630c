/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"net/http"
	"strings"

	"github.com/flamego/flamego"
)

// allowedOrigin reports whether origin may call the extraction
// endpoints. Local development origins are always allowed.
func allowedOrigin(origin, configured string) bool {
	return origin == configured ||
		strings.HasPrefix(origin, "http://localhost:") ||
		strings.HasPrefix(origin, "http://127.0.0.1:")
}

func setCORSHeaders(c flamego.Context, configured string) {
	origin := c.Request().Header.Get("Origin")

	header := c.ResponseWriter().Header()
	if allowedOrigin(origin, configured) {
		header.Set("Access-Control-Allow-Origin", origin)
	} else {
		header.Set("Access-Control-Allow-Origin", "")
	}
	header.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	header.Set("Access-Control-Allow-Headers", "Content-Type")
	header.Set("Access-Control-Max-Age", "86400")
}

// CORS adds the CORS headers to every response and answers preflight
// requests.
func CORS(c flamego.Context, deps *Deps) {
	setCORSHeaders(c, deps.AllowedOrigin)

	if c.Request().Method == http.MethodOptions {
		c.ResponseWriter().WriteHeader(http.StatusNoContent)
		return
	}

	c.Next()
}

// CheckOrigin rejects extraction requests from unknown origins.
func CheckOrigin(c flamego.Context, deps *Deps) {
	origin := c.Request().Header.Get("Origin")
	if !allowedOrigin(origin, deps.AllowedOrigin) {
		logForbiddenOrigin(c, origin)
		writeText(c, http.StatusForbidden, "Forbidden")

		return
	}

	c.Next()
}

// NoCacheHeaders disables caching for report responses.
func NoCacheHeaders() flamego.Handler {
	return func(c flamego.Context) {
		header := c.ResponseWriter().Header()
		header.Set("X-Robots-Tag", "noindex, nofollow, noarchive, nosnippet")

		if c.Request().Method == http.MethodGet || c.Request().Method == http.MethodHead {
			header.Set("Cache-Control", "no-store, max-age=0")
			header.Set("Pragma", "no-cache")
			header.Set("Expires", "0")
		}

		c.Next()
	}
}
