package tinycore

import "net/http"

// Middleware makes core the ambient container of every request context.
func Middleware(core Core) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(WithContainer(req.Context(), core)))
		})
	}
}
