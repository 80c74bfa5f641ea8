package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/storefront-auth/internal/domain/apperror"
	"github.com/oksasatya/storefront-auth/pkg/response"
)

// Status codes per outcome. Legacy clients switch on the 404 for a missing
// field, the 200 for a bad password or duplicate email, and the 401 for a
// non-admin.
var kindStatus = map[apperror.Kind]int{
	apperror.KindMissingField:       http.StatusNotFound,
	apperror.KindWhitespaceOnly:     http.StatusBadRequest,
	apperror.KindMalformed:          http.StatusBadRequest,
	apperror.KindInvalidCharacters:  http.StatusBadRequest,
	apperror.KindOutOfBounds:        http.StatusBadRequest,
	apperror.KindDuplicateEmail:     http.StatusOK,
	apperror.KindEmailNotRegistered: http.StatusNotFound,
	apperror.KindInvalidPassword:    http.StatusOK,
	apperror.KindWrongEmailOrAnswer: http.StatusNotFound,
	apperror.KindUnauthenticated:    http.StatusUnauthorized,
	apperror.KindUnauthorized:       http.StatusUnauthorized,
	apperror.KindNotFound:           http.StatusNotFound,
	apperror.KindUnexpected:         http.StatusInternalServerError,
}

func StatusFor(kind apperror.Kind) int {
	if s, ok := kindStatus[kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// respondError writes the envelope for a workflow error. Unclassified errors
// never leak their text.
func respondError(c *gin.Context, err error) {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		appErr = apperror.Unexpected(err)
	}
	var detail any
	if appErr.Field != "" {
		detail = gin.H{"field": appErr.Field}
	}
	response.Error(c, StatusFor(appErr.Kind), appErr.Message, detail)
}
