// Package github downloads package-lock.json files from GitHub repositories.
//
// # Usage
//
//	client := github.NewLockfileClient(github.Options{Token: token, Cache: c})
//	data, err := client.Fetch(ctx, "https://github.com/expressjs/express", false)
//	if errors.Is(err, github.ErrNoLockfile) {
//	    // repository has no lockfile at its root
//	}
//
// The client asks the contents API for the file's metadata and, when the
// reply is base64-encoded, downloads the raw file from its download_url.
// Misses are never retried: a 404 or an unexpected reply means the
// repository is skipped.
//
// # Authentication
//
// A GitHub personal access token is optional but recommended to avoid rate
// limits. Without a token, the client is limited to 60 requests/hour.
// With a token, the limit is 5000 requests/hour.
package github
