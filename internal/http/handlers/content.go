package handlers

import (
	"errors"
	"net/http"

	"artisanreel/internal/domain"
	"artisanreel/internal/providers/content"
)

type optimizeRequest struct {
	Content   content.GeneratedContent `json:"content"`
	Platforms []content.Platform       `json:"platforms"`
}

// actionState is the {message, error} shape the caption and music forms use.
type actionState struct {
	Message string                   `json:"message"`
	Error   string                   `json:"error,omitempty"`
	Caption string                   `json:"caption,omitempty"`
	Music   *content.MusicSuggestion `json:"music,omitempty"`
}

var allPlatforms = []content.Platform{
	content.PlatformInstagram,
	content.PlatformFacebook,
	content.PlatformTikTok,
	content.PlatformLinkedIn,
}

func (a *App) ContentGenerate(w http.ResponseWriter, r *http.Request) {
	var req content.ProductInput
	if err := a.decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	out, err := a.Content.Generate(r.Context(), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, out)
}

func (a *App) ContentOptimize(w http.ResponseWriter, r *http.Request) {
	var req optimizeRequest
	if err := a.decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	platforms := req.Platforms
	if len(platforms) == 0 {
		platforms = allPlatforms
	}
	posts := make([]content.PlatformPost, 0, len(platforms))
	for _, p := range platforms {
		posts = append(posts, content.OptimizeForPlatform(req.Content, p))
	}
	a.json(w, http.StatusOK, map[string]any{"posts": posts})
}

func (a *App) ContentCaptions(w http.ResponseWriter, r *http.Request) {
	var req content.CaptionRequest
	if err := a.decodeJSON(w, r, &req); err != nil {
		a.actionFailed(w, r, err, "Failed to generate captions.", "The AI could not generate a caption. Please try again.")
		return
	}
	caption, err := a.Content.Caption(r.Context(), req)
	if err != nil {
		a.actionFailed(w, r, err, "Failed to generate captions.", "The AI could not generate a caption. Please try again.")
		return
	}
	a.json(w, http.StatusOK, actionState{Message: "Success", Caption: caption})
}

func (a *App) ContentMusic(w http.ResponseWriter, r *http.Request) {
	var req content.MusicRequest
	if err := a.decodeJSON(w, r, &req); err != nil {
		a.actionFailed(w, r, err, "Failed to suggest music.", "The AI could not suggest music. Please try again.")
		return
	}
	music, err := a.Content.SuggestMusic(r.Context(), req)
	if err != nil {
		a.actionFailed(w, r, err, "Failed to suggest music.", "The AI could not suggest music. Please try again.")
		return
	}
	a.json(w, http.StatusOK, actionState{Message: "Success", Music: music})
}

// ContentVideoPrompt turns product images and a script into a detailed
// prompt for a video model.
func (a *App) ContentVideoPrompt(w http.ResponseWriter, r *http.Request) {
	form, err := a.readVideoForm(w, r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := form.validate(); err != nil {
		a.fail(w, r, err)
		return
	}
	prompt, err := a.Content.VideoPrompt(r.Context(), form.images, form.Script, form.ProductName)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]string{"prompt": prompt})
}

func (a *App) actionFailed(w http.ResponseWriter, r *http.Request, err error, message, providerMessage string) {
	status, _ := statusFor(err)
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		a.json(w, status, actionState{Message: "Validation failed.", Error: publicMessage(err)})
	case errors.Is(err, domain.ErrProviderFailure):
		a.Logger.Warn().Err(err).Str("path", r.URL.Path).Msg("content provider failed")
		a.json(w, status, actionState{Message: message, Error: providerMessage})
	default:
		a.Logger.Error().Err(err).Str("path", r.URL.Path).Msg("content request failed")
		a.json(w, http.StatusInternalServerError, actionState{Message: "An unexpected error occurred.", Error: "Could not connect to the AI service."})
	}
}
