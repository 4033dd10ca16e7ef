// Package watch keeps the template cache in sync with template files.
//
// Example usage:
//
//	w, err := watch.NewWatcher(engine.Cache(), logger, "templates")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := w.Start(); err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Stop()
//
// A changed file evicts the templates loaded from it and, transitively,
// every cached template that includes one of them.
package watch
