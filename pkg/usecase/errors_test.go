package usecase_test

import (
	"errors"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/minerva-bot/minerva/pkg/usecase"
)

func TestErrors_ErrorsAreDistinct(t *testing.T) {
	sentinels := []error{
		usecase.ErrNoCalendar,
		usecase.ErrNoPermalink,
		usecase.ErrUnknownCommand,
	}

	for i, a := range sentinels {
		for j, b := range sentinels {
			if i == j {
				continue
			}
			gt.Bool(t, errors.Is(a, b)).False()
		}
	}
}

func TestErrors_WrappedIdentification(t *testing.T) {
	err := goerr.Wrap(usecase.ErrNoCalendar, "evaluation pass failed", goerr.V(usecase.PassIDKey, "p-1"))
	gt.Error(t, err).Is(usecase.ErrNoCalendar)

	var ge *goerr.Error
	gt.Bool(t, errors.As(err, &ge)).True()
	gt.Value(t, ge.Values()[usecase.PassIDKey]).Equal("p-1")
}
