// Package downloader turns resolved track records into finished local files.
//
// Selection picks one encoding per track from the user's preferences, then
// one of three retrieval paths runs: a progressive stream copy, a segmented
// download concatenated in manifest order, or the uploader's original file
// (probed and re-encoded to flac when lossless). Track and segment work is
// bounded by worker pools; every intermediate artifact lives in scratch space
// and is removed on both success and failure paths.
package downloader
