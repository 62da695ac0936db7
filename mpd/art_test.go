// Copyright 2024 The mpdscreen Authors
// SPDX-License-Identifier: GPL-3.0-only

package mpd

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mpdscreen/logger"
)

// testArtBytes builds a deterministic non-trivial payload of n bytes.
func testArtBytes(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return data
}

func chunkResponse(total int, chunk []byte) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "size: %d\n", total)
	fmt.Fprintf(&b, "binary: %d\n", len(chunk))
	b.Write(chunk)
	b.WriteString("\nOK\n")
	return b.Bytes()
}

// chunkedArtHandler serves full, server-side chunked transfers of art for
// one URI through one command, like a real server would: the chunk size is
// the server's pick and the client must never assume it.
func chunkedArtHandler(cmdName, uri string, art []byte, chunkSize int) func(string) []byte {
	return func(cmd string) []byte {
		fields := strings.Fields(cmd)
		if len(fields) != 3 || fields[0] != cmdName || fields[1] != uri {
			return []byte(fmt.Sprintf("ACK [50@0] {%s} No file exists\n", fields[0]))
		}
		offset, err := strconv.Atoi(fields[2])
		if err != nil || offset < 0 || offset > len(art) {
			return []byte(fmt.Sprintf("ACK [2@0] {%s} Bad offset\n", fields[0]))
		}
		end := offset + chunkSize
		if end > len(art) {
			end = len(art)
		}
		return chunkResponse(len(art), art[offset:end])
	}
}

func artFetcher(t *testing.T, handler func(cmd string) []byte) (*ArtFetcher, *fakeServer) {
	t.Helper()
	s, server := connectedSession(t, handler)
	return NewArtFetcher(s, logger.Init()), server
}

func TestFetchEmbeddedReassemblesChunks(t *testing.T) {
	art := testArtBytes(18000)
	f, server := artFetcher(t, chunkedArtHandler("readpicture", "music/a.mp3", art, 8192))

	got, err := f.Fetch(TrackIdentity{SongID: "1", File: "music/a.mp3"})
	require.NoError(t, err)
	assert.Equal(t, art, got)

	// three round trips: 8192 + 8192 + 1616, each resuming at the
	// accumulated offset
	assert.Equal(t, []string{
		"readpicture music/a.mp3 0",
		"readpicture music/a.mp3 8192",
		"readpicture music/a.mp3 16384",
	}, server.Commands())
}

func TestFetchSingleChunk(t *testing.T) {
	art := testArtBytes(500)
	f, _ := artFetcher(t, chunkedArtHandler("readpicture", "a.mp3", art, 8192))

	got, err := f.Fetch(TrackIdentity{SongID: "1", File: "a.mp3"})
	require.NoError(t, err)
	assert.Equal(t, art, got)
}

func TestFetchFallsBackToDirectoryCover(t *testing.T) {
	art := testArtBytes(2048)
	cover := chunkedArtHandler("albumart", "music/album/cover.jpg", art, 8192)
	f, server := artFetcher(t, func(cmd string) []byte {
		if strings.HasPrefix(cmd, "readpicture") {
			// server predates the command
			return []byte("ACK [5@0] {} unknown command \"readpicture\"\n")
		}
		return cover(cmd)
	})

	got, err := f.Fetch(TrackIdentity{SongID: "2", File: "music/album/07 track.mp3"})
	require.NoError(t, err)
	assert.Equal(t, art, got)

	cmds := server.Commands()
	require.NotEmpty(t, cmds)
	assert.Equal(t, "readpicture \"music/album/07 track.mp3\" 0", cmds[0])
	assert.Contains(t, cmds, "albumart music/album/cover.jpg 0")
}

func TestFetchDirectoryTriesAllCoverNames(t *testing.T) {
	f, server := artFetcher(t, func(cmd string) []byte {
		return []byte("ACK [50@0] {albumart} No file exists\n")
	})

	got, err := f.Fetch(TrackIdentity{SongID: "3", File: "music/album/track.mp3"})
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.Equal(t, []string{
		"readpicture music/album/track.mp3 0",
		"albumart music/album/cover.jpg 0",
		"albumart music/album/cover.png 0",
		"albumart music/album/folder.jpg 0",
		"albumart music/album/folder.png 0",
		"albumart music/album/front.jpg 0",
		"albumart music/album/front.png 0",
	}, server.Commands())
}

func TestFetchTrackInMusicRoot(t *testing.T) {
	art := testArtBytes(100)
	cover := chunkedArtHandler("albumart", "cover.jpg", art, 8192)
	f, _ := artFetcher(t, func(cmd string) []byte {
		if strings.HasPrefix(cmd, "readpicture") {
			return []byte("ACK [50@0] {readpicture} No file exists\n")
		}
		return cover(cmd)
	})

	// no directory component: cover names are tried without a path prefix
	got, err := f.Fetch(TrackIdentity{SongID: "4", File: "track.mp3"})
	require.NoError(t, err)
	assert.Equal(t, art, got)
}

func TestFetchZeroSizeMeansNoArt(t *testing.T) {
	f, _ := artFetcher(t, func(cmd string) []byte {
		return []byte("size: 0\nOK\n")
	})

	got, err := f.FetchEmbedded(TrackIdentity{SongID: "5", File: "a.mp3"})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFetchChunkCeiling(t *testing.T) {
	art := testArtBytes(100000)
	f, _ := artFetcher(t, chunkedArtHandler("readpicture", "a.mp3", art, 8192))
	f.maxChunks = 2

	_, err := f.FetchEmbedded(TrackIdentity{SongID: "6", File: "a.mp3"})
	assert.ErrorIs(t, err, ErrArtTooLarge)
}

func TestFetchTruncatedTransfer(t *testing.T) {
	art := testArtBytes(50)
	f, _ := artFetcher(t, func(cmd string) []byte {
		fields := strings.Fields(cmd)
		if fields[2] == "0" {
			return chunkResponse(100, art)
		}
		// server stops sending data short of the declared total
		return []byte("size: 100\nOK\n")
	})

	_, err := f.FetchEmbedded(TrackIdentity{SongID: "7", File: "a.mp3"})
	var trunc *TruncatedChunkError
	require.ErrorAs(t, err, &trunc)
	assert.Equal(t, 100, trunc.Want)
	assert.Equal(t, 50, trunc.Got)
}

func TestFetchConnectionLossPropagates(t *testing.T) {
	f, _ := artFetcher(t, func(cmd string) []byte {
		return nil
	})

	_, err := f.Fetch(TrackIdentity{SongID: "8", File: "a.mp3"})
	assert.ErrorIs(t, err, ErrConnectionLost)
}

func TestFetchEmptyIdentity(t *testing.T) {
	f, server := artFetcher(t, func(cmd string) []byte {
		return []byte("OK\n")
	})

	got, err := f.Fetch(TrackIdentity{})
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Empty(t, server.Commands())
}
