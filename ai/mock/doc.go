// Package mock provides test double implementations of the AI interfaces.
//
// The mocks let tests run without a model server and give controlled,
// deterministic behavior, including slow and failing enhancers.
//
// # Usage in Tests
//
//	// Default behavior: query words come back as keywords
//	provider := mock.NewMockProvider()
//	partial, err := provider.Enhancer().Enhance(ctx, "login bug", nil, time.Second)
//
//	// Custom behavior injection
//	enhancer := mock.NewMockEnhancer().
//	    WithEnhanceFunc(func(ctx context.Context, query string, languages []string) (*ai.PartialParsedQuery, error) {
//	        return nil, ai.NewFailure(ai.FailureProvider, errors.New("down"))
//	    })
//
//	// Simulate a slow model
//	slow := mock.NewMockEnhancer().WithDelay(2 * time.Second)
//
//	count := enhancer.CallCount()
package mock
