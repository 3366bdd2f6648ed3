// Package loader reads curriculum source files into rag.Document values for
// the index builder.
//
// Supported formats out of the box:
//   - Plain text (.txt)
//   - Markdown (.md), one Document per heading section
//
// Use LoaderRegistry to route loading by file extension, or LoadDir to walk a
// directory in lexical order:
//
//	registry := loader.NewLoaderRegistry()
//	docs, err := registry.LoadDir(ctx, "docs/science", ".txt")
package loader
