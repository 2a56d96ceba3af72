package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/mogaika/gltfpipe/config"
	"github.com/mogaika/gltfpipe/inspect"
	"github.com/mogaika/gltfpipe/pipeline"
	"github.com/mogaika/gltfpipe/xform"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "flatten":
		runFlatten(os.Args[2:])
	case "parameterize":
		runParameterize(os.Args[2:])
	case "inspect":
		runInspect(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: gltfpipe <flatten|parameterize|inspect> [flags]")
}

func loadConfig(path string) *config.Config {
	if path == "" {
		return config.Default()
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatal(err)
	}
	return cfg
}

func runFlatten(args []string) {
	fs := flag.NewFlagSet("flatten", flag.ExitOnError)
	in := fs.String("in", "", "input .gltf/.glb path")
	out := fs.String("out", "", "output .gltf/.glb path")
	cfgPath := fs.String("config", "", "config YAML path")
	filterTriangles := fs.Bool("filter-triangles", true, "drop non-triangle primitives instead of keeping them")
	fs.Parse(args)

	if *in == "" || *out == "" {
		log.Fatal("flatten requires -in and -out")
	}

	cfg := loadConfig(*cfgPath)
	p := pipeline.New(cfg)
	defer p.Close()

	if err := p.Load(*in); err != nil {
		log.Fatal(err)
	}

	var flags xform.Flags
	if *filterTriangles {
		flags |= xform.FilterTriangles
	}
	if err := p.Flatten(flags); err != nil {
		log.Fatal(err)
	}
	if err := p.Save(*out); err != nil {
		log.Fatal(err)
	}
	log.Printf("flatten: wrote %s", *out)
}

func runParameterize(args []string) {
	fs := flag.NewFlagSet("parameterize", flag.ExitOnError)
	in := fs.String("in", "", "input .gltf/.glb path, already flattened")
	out := fs.String("out", "", "output .gltf/.glb path")
	cfgPath := fs.String("config", "", "config YAML path")
	fs.Parse(args)

	if *in == "" || *out == "" {
		log.Fatal("parameterize requires -in and -out")
	}

	cfg := loadConfig(*cfgPath)
	p := pipeline.New(cfg)
	defer p.Close()

	if err := p.Load(*in); err != nil {
		log.Fatal(err)
	}
	if err := p.Parameterize(xform.NewIdentityAtlasEngine()); err != nil {
		log.Fatal(err)
	}
	if err := p.Save(*out); err != nil {
		log.Fatal(err)
	}
	log.Printf("parameterize: wrote %s", *out)
}

func runInspect(args []string) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	addr := fs.String("i", ":8000", "address of inspect server")
	in := fs.String("in", "", "input .gltf/.glb path to preload")
	cfgPath := fs.String("config", "", "config YAML path")
	fs.Parse(args)

	cfg := loadConfig(*cfgPath)
	p := pipeline.New(cfg)
	defer p.Close()

	if *in != "" {
		if err := p.Load(*in); err != nil {
			log.Fatal(err)
		}
	}

	if err := inspect.StartServer(*addr, p); err != nil {
		log.Fatal(err)
	}
}
