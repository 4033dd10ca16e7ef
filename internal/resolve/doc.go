// Package resolve provides the path resolvers that load template sources.
//
// A PathResolver turns the path found in an include tag (or passed to the
// engine's file loaders) into a readable stream. Three implementations are
// provided:
//   - FileResolver - reads from the local file system
//   - FSResolver - reads from an io/fs.FS (embed.FS, fstest.MapFS, ...)
//   - RedisResolver - reads template sources stored as Redis string keys
//
// Example usage:
//
//	resolver := resolve.NewFileResolver("templates")
//	rc, err := resolver.Resolve("page.html")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rc.Close()
package resolve
