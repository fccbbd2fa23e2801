// Package handler holds the request parsing shared by the HTTP handlers.
package handler

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/availability-api/internal/middleware"
	"github.com/jwalitptl/availability-api/internal/model"
	"github.com/jwalitptl/availability-api/pkg/errors"
)

// RequiredUUID parses a mandatory uuid query parameter.
func RequiredUUID(c *gin.Context, name string) (uuid.UUID, error) {
	raw := c.Query(name)
	if raw == "" {
		return uuid.Nil, errors.BadRequest(fmt.Sprintf("%s is required", name), nil)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.BadRequest(fmt.Sprintf("invalid %s", name), err)
	}
	return id, nil
}

// OptionalUUID returns nil when the parameter is absent.
func OptionalUUID(c *gin.Context, name string) (*uuid.UUID, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, errors.BadRequest(fmt.Sprintf("invalid %s", name), err)
	}
	return &id, nil
}

// UUIDList parses a comma separated list of ids. Blank entries are skipped.
func UUIDList(c *gin.Context, name string) ([]uuid.UUID, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, errors.BadRequest(fmt.Sprintf("%s is required", name), nil)
	}

	var ids []uuid.UUID
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := uuid.Parse(part)
		if err != nil {
			return nil, errors.BadRequest(fmt.Sprintf("invalid id %q in %s", part, name), err)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, errors.BadRequest(fmt.Sprintf("%s is required", name), nil)
	}
	return ids, nil
}

func ParamUUID(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, errors.BadRequest(fmt.Sprintf("invalid %s", name), err)
	}
	return id, nil
}

// RequiredDate parses a mandatory YYYY-MM-DD query parameter.
func RequiredDate(c *gin.Context, name string) (time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, errors.BadRequest(fmt.Sprintf("%s is required", name), nil)
	}
	d, err := model.ParseDate(raw)
	if err != nil {
		return time.Time{}, errors.BadRequest(fmt.Sprintf("%s must be a date (YYYY-MM-DD)", name), err)
	}
	return d, nil
}

// OptionalInt returns 0 when the parameter is absent.
func OptionalInt(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.BadRequest(fmt.Sprintf("%s must be a non-negative integer", name), err)
	}
	return n, nil
}

// Clinic returns the clinic of the authenticated caller.
func Clinic(c *gin.Context) (uuid.UUID, error) {
	id, ok := middleware.ClinicID(c)
	if !ok {
		return uuid.Nil, errors.Unauthorized(nil)
	}
	return id, nil
}
