package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/practicetrack/miditempo/midi"
)

func main() {
	jsonOutput := flag.Bool("json", false, "Output song info as JSON")
	printTimeline := flag.Bool("timeline", false, "Print the bar/beat timeline")
	printTracks := flag.Bool("tracks", false, "Print per-track summaries")
	concatWith := flag.String("concat", "", "Comma-separated list of additional files to splice onto the primary file's drum track")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <file.mid>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	filename := flag.Arg(0)
	data, err := os.ReadFile(filename)
	if err != nil {
		log.Printf("Error reading file: %v\n", err)
		os.Exit(1)
	}

	var song *midi.Song
	if *concatWith != "" {
		files := [][]byte{data}
		for _, name := range splitNonEmpty(*concatWith, ',') {
			extra, err := os.ReadFile(name)
			if err != nil {
				log.Printf("Error reading concat file %q: %v\n", name, err)
				os.Exit(1)
			}
			files = append(files, extra)
		}
		song, err = midi.LinkSongs(files)
	} else {
		song, err = midi.LoadSong(data)
	}
	if err != nil {
		log.Printf("Error loading song: %v\n", err)
		os.Exit(1)
	}

	if *printTracks {
		printTrackSummaries(song)
		return
	}
	if *printTimeline {
		printBarTimeline(song)
		return
	}

	printSongInfo(song, *jsonOutput)
}

func splitNonEmpty(s string, sep byte) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

type songInfo struct {
	Format             uint16 `json:"format"`
	PPQN               uint32 `json:"ppqn"`
	TrackCount         int    `json:"trackCount"`
	BarCount           int    `json:"barCount"`
	ReservedBars       int    `json:"reservedBars"`
	SongEndMicros      int64  `json:"songEndMicros"`
	SongLengthMicros   int64  `json:"songLengthMicros"`
	DeadAirMicros      int64  `json:"deadAirMicros"`
	InitialTempoMicros uint32 `json:"initialTempoMicros"`
	InitialMeter       string `json:"initialMeter"`
	MetadataPresent    bool   `json:"metadataPresent"`
	MetadataTempo      string `json:"metadataTempo,omitempty"`
	MetadataDifficulty string `json:"metadataDifficulty,omitempty"`
	MetadataStyle      string `json:"metadataStyle,omitempty"`
}

func printSongInfo(song *midi.Song, asJSON bool) {
	info := songInfo{
		Format:             song.Format,
		PPQN:               song.PPQN,
		TrackCount:         len(song.Tracks),
		BarCount:           len(song.BarUsecs),
		ReservedBars:       song.ReservedBars,
		SongEndMicros:      song.SongEnd,
		SongLengthMicros:   song.SongLength(),
		DeadAirMicros:      song.DeadAirOffset(),
		InitialTempoMicros: song.InitialTempoMicros,
		InitialMeter:       fmt.Sprintf("%d/%d", song.InitialNumerator, song.InitialDenominator),
		MetadataPresent:    song.Metadata.Present,
		MetadataTempo:      song.Metadata.Tempo,
		MetadataDifficulty: song.Metadata.Difficulty,
		MetadataStyle:      song.Metadata.Style,
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(info); err != nil {
			log.Printf("Error encoding JSON: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Printf("Format:        %d\n", info.Format)
	fmt.Printf("PPQN:          %d\n", info.PPQN)
	fmt.Printf("Tracks:        %d\n", info.TrackCount)
	fmt.Printf("Bars:          %d (reserved: %d)\n", info.BarCount, info.ReservedBars)
	fmt.Printf("Song length:   %d us (end %d us, dead air %d us)\n", info.SongLengthMicros, info.SongEndMicros, info.DeadAirMicros)
	fmt.Printf("Initial tempo: %d us/qn, meter %s\n", info.InitialTempoMicros, info.InitialMeter)
	if info.MetadataPresent {
		fmt.Printf("Metadata:      tempo=%q difficulty=%q style=%q\n", info.MetadataTempo, info.MetadataDifficulty, info.MetadataStyle)
	}
}

func printTrackSummaries(song *midi.Song) {
	for i, t := range song.Tracks {
		kind := fmt.Sprintf("program %d", t.Program)
		switch {
		case t.Various:
			kind = "various"
		case t.Percussion:
			kind = "percussion"
		}
		fmt.Printf("track %d %q: %d events, %d notes, %s\n", i, t.Name, len(t.Events), len(t.Notes), kind)
	}
}

func printBarTimeline(song *midi.Song) {
	for i, usec := range song.BarUsecs {
		beats := song.BarBeats[i]
		fmt.Printf("bar %d: pulse %d, %d us, %d beats\n", i, song.BarPulses[i], usec, len(beats))
	}
}
