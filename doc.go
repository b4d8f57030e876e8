// Package ilpcoach embeds the Integral Life Practice coaching pipeline in a Go program.
//
// The client connects to Redis 8+ (JSON, search and vector support), embeds text with an
// OpenAI-compatible provider and exposes context retrieval, recommendation synthesis,
// catalog ingestion and session recording:
//
//	client, _ := ilpcoach.New(
//	    ilpcoach.WithRedis("localhost:6379", ""),
//	    ilpcoach.WithOpenAI(os.Getenv("OPENAI_API_KEY"), ""),
//	)
//	defer client.Close()
//
//	_, _ = client.AddPractices(ctx, practices, nil)
//	resp, _ := client.Recommend(ctx, "user-1", "I feel scattered in the mornings", nil, 5)
//	for _, r := range resp.Recommendations {
//	    fmt.Println(r.PracticeTitle, r.Reasoning)
//	}
package ilpcoach
