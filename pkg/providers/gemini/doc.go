// Package gemini implements the Gemini provider adapter.
//
// This package provides an implementation of the providers.Provider interface
// for the Generative Language API generateContent method.
//
// # Basic Usage
//
//	config := providers.ProviderConfig{
//	    Name:    "gemini",
//	    BaseURL: "https://generativelanguage.googleapis.com",
//	    APIKey:  os.Getenv("DIALOGLENS_PROVIDER_API_KEY"),
//	}
//
//	provider, err := gemini.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	resp, err := provider.SendCompletion(ctx, &providers.CompletionRequest{
//	    Model: "gemini-2.0-flash",
//	    Messages: []providers.Message{
//	        {Role: providers.RoleUser, Content: "Hello!"},
//	    },
//	})
//
// # Roles
//
// MapRole is the only place roles are translated:
//
//	system    -> user
//	user      -> user
//	assistant -> model
//
// Anything else fails with a providers.ValidationError before a request is sent.
//
// # Authentication
//
// The API key is sent in the x-goog-api-key header, never as a query
// parameter, so request URLs are safe to log.
package gemini
