// Package storage writes run artifacts to disk.
//
// Every file (the exported records, the exclusion list, summaries and
// checkpoints) is written to a temporary sibling first and renamed into
// place, so an interrupted run never leaves a truncated file behind.
//
// Usage:
//
//	manager, err := storage.NewManager("out")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = manager.WriteFile("jack_followers.csv", func(w io.Writer) error {
//	    _, err := io.WriteString(w, "id,screen_name\n")
//	    return err
//	})
package storage
