// Package promptdex embeds prompt-template search in a Go program. It opens the
// same storage backends as the promptdex server (Redis, Valkey or SQLite) and
// ranks templates with the same keyword, full-text, semantic and hybrid modes.
//
//	client, _ := promptdex.New(ctx, promptdex.WithSQLite("templates.db"))
//	defer client.Close()
//
//	_, _ = client.EnsureIndex(ctx)
//	_, _ = client.Upsert(ctx, promptdex.Template{
//	    ID: "review", Title: "Code review checklist", OwnerID: "u1",
//	})
//	page, _ := client.Search(ctx, "review", "u1", &promptdex.SearchOptions{
//	    Mode: promptdex.ModeHybrid, IncludeShared: true,
//	})
//
// Semantic and hybrid ranking need an embedder (WithEmbedder). Without one the
// semantic branch contributes nothing and hybrid ranks by full-text alone.
package promptdex
