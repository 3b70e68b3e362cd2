package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// errInvalidStatus rejects unrecognized status filter values
var errInvalidStatus = errors.New("invalid status parameter")

// parseUUIDParam parses a UUID path parameter
func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, errors.New("invalid " + name + " parameter")
	}
	return id, nil
}

// queryUUID parses an optional UUID query parameter. A missing parameter
// returns nil without error.
func queryUUID(c *gin.Context, name string) (*uuid.UUID, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, errors.New("invalid " + name + " parameter")
	}
	return &id, nil
}

// queryInt parses an optional integer query parameter
func queryInt(c *gin.Context, name string) (*int, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, errors.New("invalid " + name + " parameter")
	}
	return &v, nil
}

// queryBool parses an optional boolean query parameter
func queryBool(c *gin.Context, name string) (*bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, errors.New("invalid " + name + " parameter")
	}
	return &v, nil
}

// formDecimal parses a required decimal form field from a multipart request
func formDecimal(c *gin.Context, name string) (decimal.Decimal, error) {
	raw := c.PostForm(name)
	if raw == "" {
		return decimal.Zero, errors.New(name + " is required")
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, errors.New("invalid " + name + " value")
	}
	return d, nil
}
