package sbhttp

import (
	"encoding/json"
	"net/http"
)

func ReturnError(w http.ResponseWriter, code int, message string, err error) {
	http.Error(w, message, code)
}

func WriteJson(w http.ResponseWriter, code int, result interface{}) error {
	w.Header().Add("content-type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		w.Write([]byte("error serializing response"))
		return err
	}
	return nil
}
