package handler

import (
	"errors"
	"net/http"
	"reflect"

	"stockbook/internal/apierror"
	"stockbook/internal/middleware"
	"stockbook/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0 work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	// Quantities and prices go out as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid JSON: "+err.Error()))
		return false
	}
	return validateStruct(c, req)
}

// bindQuery is bindAndValidate for query strings.
func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid query: "+err.Error()))
		return false
	}
	return validateStruct(c, req)
}

func validateStruct(c *gin.Context, req interface{}) bool {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
			return false
		}
		fields := make(map[string]string)
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusBadRequest, apierror.NewValidation(fields))
		return false
	}
	return true
}

// respondError maps a service error onto the {error, field?} envelope.
// Store failures are logged in full and answered with their operation name only.
func respondError(c *gin.Context, err error) {
	status := service.HTTPStatus(err)

	var ve *service.ValidationError
	if errors.As(err, &ve) && ve.Field != "" {
		c.JSON(status, apierror.NewField(ve.Field, ve.Message))
		return
	}
	if status >= http.StatusInternalServerError {
		log.Error().
			Str("request_id", c.GetString(middleware.RequestIDKey)).
			Str("path", c.FullPath()).
			Err(err).
			Msg("request failed")
		msg := err.Error()
		var se *service.StoreError
		if errors.As(err, &se) && se.Op != "" {
			msg = se.Op
		}
		c.JSON(status, apierror.New(msg))
		return
	}
	c.JSON(status, apierror.New(err.Error()))
}

// actorFrom converts the JWT claims into the service-level caller identity.
// Routes without JWTAuth yield the zero Actor.
func actorFrom(c *gin.Context) service.Actor {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return service.Actor{}
	}
	a := service.Actor{Email: claims.Email, Role: claims.Role}
	a.UserID, _ = uuid.Parse(claims.UserID)
	a.OrganizationID = parseOptionalID(claims.OrganizationID)
	a.BranchID = parseOptionalID(claims.BranchID)
	return a
}

func parseOptionalID(raw *string) *uuid.UUID {
	if raw == nil {
		return nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil
	}
	return &id
}
