package validations

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/dvergaraf/wacrm/agents"
	pkgError "github.com/dvergaraf/wacrm/pkg/error"
)

func ValidateUpsertAgent(ctx context.Context, request agents.UpsertAgentRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.Provider, validation.Required, validation.In(
			agents.ProviderGemini, agents.ProviderOpenAI, agents.ProviderWebAgent,
		)),
		validation.Field(&request.URL, validation.When(request.Provider == agents.ProviderWebAgent, validation.Required, is.URL)),
		validation.Field(&request.Name, validation.Length(0, 120)),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}
