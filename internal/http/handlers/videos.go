package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"artisanreel/internal/domain"
	"artisanreel/internal/providers/video"
	"artisanreel/internal/videojob"
)

type jobResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

type videoJobDTO struct {
	ID           string    `json:"id"`
	Status       string    `json:"status"`
	ProductName  string    `json:"product_name"`
	Provider     string    `json:"provider"`
	Images       int       `json:"images"`
	ImageURLs    []string  `json:"image_urls,omitempty"`
	VideoURL     string    `json:"video_url,omitempty"`
	ErrorReason  string    `json:"error_reason,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// VideosGenerate runs the whole submit and poll workflow inside the request
// and answers with {success, video_url?, error?}.
func (a *App) VideosGenerate(w http.ResponseWriter, r *http.Request) {
	form, err := a.readVideoForm(w, r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := form.validate(); err != nil {
		a.fail(w, r, err)
		return
	}
	res := a.Video.GenerateVideo(r.Context(), form.images, form.Script, form.ProductName)
	if !res.Success {
		a.Logger.Warn().
			Str("user_id", a.currentUserID(r)).
			Str("job_id", res.JobID).
			Str("error", res.Error).
			Msg("video generation failed")
	}
	a.json(w, statusForVideo(res), res)
}

func statusForVideo(res video.VideoResult) int {
	if res.Success {
		return http.StatusOK
	}
	if res.Failure == nil {
		return http.StatusBadGateway
	}
	switch res.Failure.Reason {
	case video.ReasonTimeout:
		return http.StatusGatewayTimeout
	case video.ReasonConfiguration:
		return http.StatusServiceUnavailable
	case video.ReasonCanceled:
		return http.StatusRequestTimeout
	default:
		return http.StatusBadGateway
	}
}

// VideosEnqueue queues the same request for the worker.
func (a *App) VideosEnqueue(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	if a.Jobs == nil {
		a.error(w, http.StatusServiceUnavailable, "unavailable", "video queue is not configured")
		return
	}
	form, err := a.readVideoForm(w, r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := form.validate(); err != nil {
		a.fail(w, r, err)
		return
	}
	job, err := a.Jobs.Enqueue(r.Context(), videojob.EnqueueInput{
		UserID:      userID,
		ProductName: form.ProductName,
		Script:      form.Script,
		Images:      form.images,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/videos/"+job.ID)
	a.json(w, http.StatusAccepted, jobResponse{JobID: job.ID, Status: string(job.Status)})
}

func (a *App) VideoStatus(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	if a.Jobs == nil {
		a.error(w, http.StatusServiceUnavailable, "unavailable", "video queue is not configured")
		return
	}
	jobID := chi.URLParam(r, "job_id")
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "job_id required")
		return
	}
	job, err := a.Jobs.Get(r.Context(), userID, jobID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	dto := toVideoJobDTO(job)
	dto.ImageURLs = a.Jobs.ImageURLs(job)
	a.json(w, http.StatusOK, dto)
}

func toVideoJobDTO(job *domain.VideoJob) videoJobDTO {
	return videoJobDTO{
		ID:           job.ID,
		Status:       string(job.Status),
		ProductName:  job.ProductName,
		Provider:     job.Provider,
		Images:       len(job.ImageKeys),
		VideoURL:     job.VideoURL,
		ErrorReason:  job.ErrorReason,
		ErrorMessage: job.ErrorMessage,
		CreatedAt:    job.CreatedAt,
		UpdatedAt:    job.UpdatedAt,
	}
}
