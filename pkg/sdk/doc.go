// Package osinter embeds the osinter article search and subscription
// services in a Go program, without the HTTP layer.
//
//	client, _ := osinter.New(ctx, osinter.WithBolt("osinter.db"), osinter.WithBleve(""))
//	defer client.Close()
//
//	u, _ := client.Users().Signup(ctx, osinter.SignupParams{Username: "alice", Password: "secret"})
//	_ = client.Articles().Index(ctx, articles)
//	page, _ := client.Articles().Search(ctx, osinter.SearchParams{SearchTerm: "ransomware", Highlight: true})
package osinter
