package validation_test

import (
	"errors"
	"testing"

	"eshop/internal/apperrors"
	"eshop/internal/models"
	"eshop/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStruct_CardDetails(t *testing.T) {
	v := validation.New()

	ok := models.CardDetails{Number: "4532015112830366", ExpMonth: 12, ExpYear: 2030, CVC: "123"}
	assert.NoError(t, validation.Struct(v, ok))

	bad := models.CardDetails{Number: "4532015112830367", ExpMonth: 13, ExpYear: 2030, CVC: "12"}
	err := validation.Struct(v, bad)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))

	var verr *apperrors.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "is not a valid card number", verr.Fields["card_number"])
	assert.Contains(t, verr.Fields, "exp_month")
	assert.Contains(t, verr.Fields, "cvc")
}

func TestStruct_ProfilePersonName(t *testing.T) {
	v := validation.New()

	assert.NoError(t, validation.Struct(v, models.Profile{
		FirstName: "Anne-Marie",
		LastName:  "O'Neil",
		Address:   "12 Rue des Fleurs",
	}))

	err := validation.Struct(v, models.Profile{
		FirstName: "R2D2",
		LastName:  "X",
		Address:   "short",
	})
	var verr *apperrors.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "may only contain letters, spaces, hyphens and apostrophes", verr.Fields["first_name"])
	assert.Equal(t, "must be at least 2 characters", verr.Fields["last_name"])
	assert.Equal(t, "must be at least 10 characters", verr.Fields["address"])
}
