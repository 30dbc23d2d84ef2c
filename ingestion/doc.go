// Package ingestion turns a Markdown vault into stored tasks.
//
// Checklist lines such as
//
//	- [ ] Fix login bug ⏫ 📅 2025-03-14 #work
//	- [/] Draft release notes [due:: 2025-03-20] [priority:: high]
//
// become core.Task records. The status is the checkbox symbol, the folder
// comes from the file's directory and the ID from its path and line, so
// re-ingesting an unchanged vault yields the same IDs. IngestVault replaces
// the whole stored set; IngestFile refreshes a single file.
package ingestion
