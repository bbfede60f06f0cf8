package endpoints

import (
	"github.com/taanya/pylearn/internal/api"
)

// All returns all endpoint instances.
func All() []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&ReadyEndpoint{},
		&StatusEndpoint{},

		// Auth endpoints
		&LoginEndpoint{},
		&LogoutEndpoint{},

		// Exercise endpoints
		&GenerateEndpoint{},
		&ListExercisesEndpoint{},
		&GetExerciseEndpoint{},
		&SubmitEndpoint{},
		&DeleteExerciseEndpoint{},

		// Progress endpoint
		&ProgressEndpoint{},

		// Model availability endpoint
		&AvailabilityEndpoint{},

		// PDF endpoints
		&UploadEndpoint{},
		&ListDocumentsEndpoint{},
		&DeleteDocumentEndpoint{},

		// UI preference endpoints
		&GetPreferencesEndpoint{},
		&UpdatePreferencesEndpoint{},
	}
}

// ExerciseCommands returns endpoints grouped under the "exercises"
// CLI subcommand.
func ExerciseCommands() []api.Endpoint {
	return []api.Endpoint{
		&GenerateEndpoint{},
		&ListExercisesEndpoint{},
		&GetExerciseEndpoint{},
		&SubmitEndpoint{},
		&DeleteExerciseEndpoint{},
	}
}

// PDFCommands returns endpoints grouped under the "pdfs" CLI subcommand.
func PDFCommands() []api.Endpoint {
	return []api.Endpoint{
		&UploadEndpoint{},
		&ListDocumentsEndpoint{},
		&DeleteDocumentEndpoint{},
	}
}

// PreferenceCommands returns endpoints grouped under the "preferences"
// CLI subcommand.
func PreferenceCommands() []api.Endpoint {
	return []api.Endpoint{
		&GetPreferencesEndpoint{},
		&UpdatePreferencesEndpoint{},
	}
}
