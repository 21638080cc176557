package handler

import (
	"net/http"
	"reflect"

	"github.com/Artistkw3d/Pos-Offline-sub000/internal/apierror"
	"github.com/Artistkw3d/Pos-Offline-sub000/internal/middleware"
	"github.com/Artistkw3d/Pos-Offline-sub000/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails —
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid JSON: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// currentActor builds the service actor from the JWT claims.
func currentActor(c *gin.Context) service.Actor {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return service.Actor{}
	}
	actor := service.Actor{Name: claims.Username, Role: claims.Role}
	if id, err := uuid.Parse(claims.UserID); err == nil {
		actor.ID = id
	}
	if claims.BranchID != nil {
		if id, err := uuid.Parse(*claims.BranchID); err == nil {
			actor.BranchID = &id
		}
	}
	return actor
}

// respondError maps a service error onto the standard error envelope.
func respondError(c *gin.Context, err error) {
	status := apierror.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		// surface through ErrorHandler so internals stay out of the response
		_ = c.Error(err)
		return
	}
	c.JSON(status, apierror.New(err.Error()))
}

// pathID parses the :id path parameter.
func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return uuid.Nil, false
	}
	return id, true
}
