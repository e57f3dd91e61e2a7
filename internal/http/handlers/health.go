package handlers

import (
	"net/http"
	"time"
)

type healthResponse struct {
	Status string    `json:"status"`
	Time   time.Time `json:"time"`
	Queue  bool      `json:"queue"`
}

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, healthResponse{Status: "ok", Time: time.Now().UTC(), Queue: a.Jobs != nil})
}
