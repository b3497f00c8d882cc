package app

import "net/http"

func (app *Application) RequestHasInvalidAPIKey(r *http.Request) bool {
	key := r.URL.Query().Get("key")
	return app.IsInvalidAPIKey(key)
}

func (app *Application) IsInvalidAPIKey(key string) bool {
	if key == "" {
		return true
	}

	for _, validKey := range app.Config.APIKeys {
		if key == validKey {
			return false
		}
	}
	for _, exempt := range app.Config.ExemptAPIKeys {
		if key == exempt {
			return false
		}
	}

	return true
}
