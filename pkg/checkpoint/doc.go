// Package checkpoint saves pagination progress so an interrupted fetch can
// resume where it stopped.
//
// After every page the page's accounts are appended to
// <username>_<request>.accounts.jsonl and the cursor of the next page is
// written atomically to <username>_<request>.checkpoint.json, together with
// the length of the accounts file it vouches for. A resumed run restores the
// accounts and continues from that cursor; a completed run deletes both files.
//
// Checkpoints are stored in platform-specific data directories:
//   - Linux: $XDG_DATA_HOME/xfollowers/checkpoints/ or ~/.local/share/xfollowers/checkpoints/
//   - macOS: ~/Library/Application Support/xfollowers/checkpoints/
//   - Windows: %APPDATA%/xfollowers/checkpoints/
package checkpoint
