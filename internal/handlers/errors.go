package handlers

import (
	"fmt"
	"log"
	"net/http"
)

func respondWithError(w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		log.Printf("%s: %v", logMsg, err)
	}

	http.Error(w, userMsg, status)
}

// serverError logs err and answers 500. The cause is only shown when
// development mode is on.
func (v *View) serverError(w http.ResponseWriter, logMsg string, err error) {
	userMsg := ErrInternalServerError
	if v.development && err != nil {
		userMsg = fmt.Sprintf("%s: %v", ErrInternalServerError, err)
	}
	respondWithError(w, http.StatusInternalServerError, userMsg, logMsg, err)
}
