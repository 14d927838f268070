// Package transform post-processes an assembled study document before
// delivery. A Transform receives the document together with the decoded
// tag sets of every accepted instance and returns a replacement document.
//
// Transforms compose into a Chain that applies them in order, stopping at
// the first failure:
//
//	chain := transform.NewChain(
//		transform.InstanceCount(),
//		transform.EndpointRewrite("https://img.example.com/{study}/{series}/{instance}"),
//	)
//	doc, err := chain.Apply(ctx, doc, sets)
package transform
