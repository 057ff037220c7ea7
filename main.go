package main

import (
	"flag"
	"log"
	"os"

	"github.com/mrdg/edo/audio"
	"github.com/mrdg/edo/midi"
)

func main() {
	var (
		sampleRate = flag.Float64("rate", audio.DefaultSampleRate, "sample rate in Hz")
		bufferSize = flag.Int("buffer", audio.DefaultBufferSize, "audio buffer size in frames")
		voices     = flag.Int("voices", audio.DefaultVoices, "number of voices")
		divisions  = flag.Int("edo", audio.DefaultDivisions, "equal divisions of the octave")
		backend    = flag.String("backend", audio.BackendPortAudio, "audio backend: portaudio, oto or none")
		midiPort   = flag.String("midi", "", "MIDI input port to listen on, \"default\" for the first port")
		run        = flag.String("run", "", "script of commands to run before starting the repl")
		monitor    = flag.Bool("monitor", false, "log incoming MIDI events")
		listPorts  = flag.Bool("ports", false, "list MIDI input ports and exit")
	)
	flag.Parse()

	if *listPorts {
		for _, name := range midi.Ports() {
			log.Println(name)
		}
		midi.CloseDriver()
		return
	}

	clock := audio.NewClock(*sampleRate)
	inst, err := audio.NewInstrument(audio.NewProps(), clock, audio.Config{
		SampleRate: *sampleRate,
		BufferSize: *bufferSize,
		Voices:     *voices,
		Divisions:  *divisions,
	})
	if err != nil {
		log.Fatal(err)
	}
	seq := audio.NewSequencer(audio.NewProps(), *sampleRate)

	sink, err := audio.NewSink(*backend, clock, *bufferSize)
	if err != nil {
		log.Fatal(err)
	}
	sink.AddTicker(seq)
	sink.AddSources(inst)
	if err := sink.Start(); err != nil {
		log.Fatal(err)
	}
	defer sink.Stop()

	env := newEnv(inst, seq)
	env.color = isTerminal(os.Stdout)

	if *midiPort != "" {
		name := *midiPort
		if name == "default" {
			name = ""
		}
		var onEvent func(audio.Event)
		if *monitor {
			onEvent = func(ev audio.Event) {
				log.Println(env.colorize(describe(ev, env.divisions()), colorGreen))
			}
		}
		in, err := midi.Open(name, inst, onEvent)
		if err != nil {
			log.Fatal(err)
		}
		defer midi.CloseDriver()
		defer in.Close()
		env.midi = in
		log.Printf("listening on %s", in.Port())
	}

	if *run != "" {
		script, err := os.ReadFile(*run)
		if err != nil {
			log.Fatal(err)
		}
		if err := env.exec(string(script)); err != nil {
			log.Fatalf("%s: %v", *run, err)
		}
	}

	if err := repl(env); err != nil {
		log.Println(err)
	}
}
