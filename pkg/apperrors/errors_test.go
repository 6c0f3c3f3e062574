package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppErrorWrapping(t *testing.T) {
	base := errors.New("disk full")
	err := fmt.Errorf("handler: %w", Internal(base, "could not save"))

	appErr, ok := IsAppError(err)
	if !ok {
		t.Fatal("expected AppError in chain")
	}
	if appErr.HTTPStatus != http.StatusInternalServerError || appErr.Code != "INTERNAL_ERROR" {
		t.Errorf("unexpected %+v", appErr)
	}
	if !errors.Is(err, base) {
		t.Error("underlying error must stay reachable")
	}
	if appErr.Error() != "INTERNAL_ERROR: could not save: disk full" {
		t.Errorf("Error() = %q", appErr.Error())
	}
}

func TestConstructors(t *testing.T) {
	if e := NotFound("X", "gone"); e.HTTPStatus != http.StatusNotFound || e.Error() != "X: gone" {
		t.Errorf("NotFound = %+v", e)
	}
	if e := BadRequest("Y", "bad"); e.HTTPStatus != http.StatusBadRequest {
		t.Errorf("BadRequest = %+v", e)
	}
	if _, ok := IsAppError(errors.New("plain")); ok {
		t.Error("plain errors are not AppErrors")
	}
}
