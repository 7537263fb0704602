package handler

import (
	"errors"
	"mime"
	"net/http"
	"strings"

	"github.com/tanveenambrose/EcoMoney/internal/application/avatar"
	"github.com/tanveenambrose/EcoMoney/internal/application/user"
	"github.com/tanveenambrose/EcoMoney/internal/domain"
	"github.com/tanveenambrose/EcoMoney/internal/transport/http/middleware"
)

const multipartOverhead = 1 << 20

// ProfileHandler serves the signed-in user's own profile under /api/user.
type ProfileHandler struct {
	svc user.Service
}

func NewProfileHandler(svc user.Service) *ProfileHandler { return &ProfileHandler{svc: svc} }

func (h *ProfileHandler) GetData(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	p, err := h.svc.GetProfile(r.Context(), claims.UserID)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ProfileEnvelope{Success: true, UserData: p})
}

// UpdateProfile accepts multipart/form-data (with an optional "image" file) or a JSON body.
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req domain.UpdateProfileRequest
	var image *avatar.UploadInput
	if isMultipart(r) {
		r.Body = http.MaxBytesReader(w, r.Body, avatar.MaxSize+multipartOverhead)
		if err := r.ParseMultipartForm(avatar.MaxSize + multipartOverhead); err != nil {
			writeError(w, http.StatusBadRequest, "invalid multipart form")
			return
		}
		defer r.MultipartForm.RemoveAll()
		var err error
		if req, err = profileFromForm(r); err != nil {
			httpError(w, r, err)
			return
		}
		file, header, err := r.FormFile("image")
		switch {
		case errors.Is(err, http.ErrMissingFile):
		case err != nil:
			writeError(w, http.StatusBadRequest, "invalid image upload")
			return
		default:
			defer file.Close()
			image = &avatar.UploadInput{
				Reader:      file,
				Filename:    header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Size:        header.Size,
			}
		}
	} else if !decodeValid(w, r, &req) {
		return
	}

	p, err := h.svc.UpdateProfile(r.Context(), claims.UserID, req, image)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ProfileEnvelope{Success: true, Message: "Profile updated successfully", UserData: p})
}

func (h *ProfileHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.ChangePasswordRequest
	if !decodeValid(w, r, &req) {
		return
	}
	if err := h.svc.ChangePassword(r.Context(), claims.UserID, req); err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Success: true, Message: "Password changed successfully"})
}

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}

// profileFromForm reads the optional text fields of a multipart profile update.
// Absent fields stay nil; present totals must parse as decimals.
func profileFromForm(r *http.Request) (domain.UpdateProfileRequest, error) {
	var req domain.UpdateProfileRequest
	values := r.MultipartForm.Value
	field := func(name string) *string {
		v, ok := values[name]
		if !ok || len(v) == 0 {
			return nil
		}
		s := strings.TrimSpace(v[0])
		return &s
	}
	req.Name = field("name")
	req.Phone = field("phoneNo")

	totals := []struct {
		name string
		dst  **domain.Money
	}{
		{"totalEarnings", &req.TotalEarnings},
		{"totalSpending", &req.TotalSpending},
		{"totalSavings", &req.TotalSavings},
	}
	for _, t := range totals {
		raw := field(t.name)
		if raw == nil || *raw == "" {
			continue
		}
		m, err := domain.ParseMoney(*raw)
		if err != nil {
			return req, err
		}
		*t.dst = &m
	}
	return req, nil
}
