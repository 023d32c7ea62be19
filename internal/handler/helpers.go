package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"

	"tillpos/internal/apierror"
	"tillpos/internal/cart"
	"tillpos/internal/middleware"
	"tillpos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
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

// terminalFrom resolves the register a request operates on: the JWT pins
// cashiers to their terminal, supervisors pass ?terminal= explicitly.
func terminalFrom(c *gin.Context) (int, bool) {
	claims := middleware.GetClaims(c)
	if claims != nil && claims.Terminal != nil {
		return *claims.Terminal, true
	}
	if q := c.Query("terminal"); q != "" {
		if t, err := strconv.Atoi(q); err == nil && t >= 1 {
			return t, true
		}
	}
	c.JSON(http.StatusBadRequest, apierror.New("terminal is required"))
	return 0, false
}

// writeServiceError maps typed domain errors to HTTP statuses. Anything not
// recognized becomes a 400 with the error text, matching the rest of the API.
func writeServiceError(c *gin.Context, err error) {
	var (
		sessionClosed  *service.SessionClosedError
		alreadyOpen    *service.SessionAlreadyOpenError
		noStock        *service.InsufficientStockError
		shortTender    *service.InsufficientTenderError
		badAmount      *service.InvalidAmountError
		suspendMissing *service.SuspendedOrderNotFoundError
		terminalBusy   *service.TerminalBusyError
	)
	switch {
	case errors.As(err, &alreadyOpen), errors.As(err, &sessionClosed), errors.As(err, &terminalBusy):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	case errors.As(err, &noStock):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	case errors.As(err, &suspendMissing):
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
	case errors.As(err, &shortTender),
		errors.As(err, &badAmount),
		errors.Is(err, cart.ErrEmptyCart),
		errors.Is(err, cart.ErrNothingDue),
		errors.Is(err, cart.ErrLineNotFound):
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
	default:
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
	}
}
