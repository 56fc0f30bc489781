// Package cli provides the interactive command-line client for the
// document chat backend.
//
// It wires configuration, the local token database, the authenticated API
// client and the services, then runs a REPL. Typical flow: sign in (or sign
// up), upload documents, open or create a chat and ask questions about the
// uploaded documents.
//
// Key features:
//   - register / signup / login / logout / whoami
//   - docs, upload, rmdoc
//   - chats (history), newchat, open, rmchat, messages, ask
//   - stats (client request and token refresh counters)
//
// When the session expires mid-use the REPL announces it before the next
// prompt and asks for credentials again.
package cli
