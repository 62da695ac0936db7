// Copyright 2024 The mpdscreen Authors
// SPDX-License-Identifier: GPL-3.0-only

package mpd

import (
	"errors"
	"path"
	"strconv"

	"mpdscreen/logger"
)

// coverNames are the conventional cover file names tried for the directory
// fallback, in order. The first non-empty response wins.
var coverNames = []string{
	"cover.jpg",
	"cover.png",
	"folder.jpg",
	"folder.png",
	"front.jpg",
	"front.png",
}

// defaultMaxChunks bounds the chunk round-trips of one fetch. With the
// usual 8 KiB server chunk size this allows covers up to half a megabyte,
// which is plenty for a screen; a misbehaving server cannot make us
// accumulate without limit.
const defaultMaxChunks = 64

// ArtFetcher retrieves album art over the session, embedded art first,
// same-directory cover files second. It owns the raw bytes only while a
// fetch is being assembled; decoding and caching live elsewhere.
type ArtFetcher struct {
	session   *Session
	logger    logger.LoggerInterface
	maxChunks int
}

func NewArtFetcher(s *Session, l logger.LoggerInterface) *ArtFetcher {
	return &ArtFetcher{session: s, logger: l, maxChunks: defaultMaxChunks}
}

// Fetch tries embedded art, then the directory fallback. A nil byte slice
// with a nil error means no art is available for this track.
func (f *ArtFetcher) Fetch(id TrackIdentity) ([]byte, error) {
	data, err := f.FetchEmbedded(id)
	if err != nil || data != nil {
		return data, err
	}
	return f.FetchFromDirectory(id)
}

// FetchEmbedded retrieves art embedded in the track's audio file via the
// chunked readpicture command. Servers that predate the command reject it
// with an ACK; that and a zero-size response both mean "no art", not an
// error.
func (f *ArtFetcher) FetchEmbedded(id TrackIdentity) ([]byte, error) {
	if id.File == "" {
		return nil, nil
	}
	return f.fetchChunked("readpicture", id.File)
}

// FetchFromDirectory derives the track's directory and requests each
// conventional cover file name through the albumart command. The server
// reads the actual files; this client never touches the music directory.
func (f *ArtFetcher) FetchFromDirectory(id TrackIdentity) ([]byte, error) {
	if id.File == "" {
		return nil, nil
	}
	dir := path.Dir(id.File)
	for _, name := range coverNames {
		uri := name
		if dir != "." {
			uri = path.Join(dir, name)
		}
		data, err := f.fetchChunked("albumart", uri)
		if err != nil {
			return nil, err
		}
		if data != nil {
			return data, nil
		}
	}
	return nil, nil
}

// fetchChunked drives the binary-fetch sub-protocol: request at offset 0,
// let the response declare the total size and return one chunk of
// server-chosen length, then re-request at the accumulated offset until
// the total is reached. The chunk size must not be assumed fixed; the last
// chunk in particular is usually shorter.
func (f *ArtFetcher) fetchChunked(cmdName, uri string) ([]byte, error) {
	var data []byte
	total := -1

	for chunks := 0; ; chunks++ {
		if chunks >= f.maxChunks {
			return nil, ErrArtTooLarge
		}

		lines, err := f.session.Do(NewCommand(cmdName, uri, strconv.Itoa(len(data))))
		if err != nil {
			var ack *Ack
			if errors.As(err, &ack) {
				// unknown command (old server), no such file, art refused:
				// all of these mean no art from this path
				f.logger.Printf("mpd: %s %q: %s", cmdName, uri, ack.Message)
				return nil, nil
			}
			return nil, err
		}

		var chunk []byte
		sawChunk := false
		for _, line := range lines {
			switch {
			case line.Kind == KindBinary:
				chunk = line.Data
				sawChunk = true
			case line.Kind == KindKeyValue && line.Key == "size":
				if n, err := strconv.Atoi(line.Value); err == nil {
					total = n
				}
			}
		}

		if total == 0 || (!sawChunk && len(data) == 0) || (sawChunk && len(chunk) == 0 && len(data) == 0) {
			return nil, nil
		}
		if !sawChunk || len(chunk) == 0 {
			// server stopped sending data short of the declared size
			if total >= 0 && len(data) != total {
				return nil, &TruncatedChunkError{Want: total, Got: len(data)}
			}
			return data, nil
		}

		data = append(data, chunk...)
		if total >= 0 && len(data) >= total {
			return data, nil
		}
	}
}
