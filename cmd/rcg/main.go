package main

// rcg writes a random circuit to standard output.
//
//	rcg [-seed name] <nqubits> <ngates> <p1> ... <pn>
//
// pi is the probability of a gate having i inputs; the pi must sum to 1.

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/iti/qmcsim"
	"github.com/iti/rngstream"
)

func main() {
	seed := flag.String("seed", "rcg", "name of the random number stream")
	flag.Parse()

	args := flag.Args()
	if len(args) < 3 {
		fmt.Fprintf(os.Stderr, "Use %s [-seed name] <nqubits> <ngates> <prob1 prob2 ... prob_n>\n", os.Args[0])
		os.Exit(1)
	}

	nqubits, err1 := strconv.Atoi(args[0])
	ngates, err2 := strconv.Atoi(args[1])
	if err := qmcsim.ReportErrs([]error{err1, err2}); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}

	prob := make([]float64, 0, len(args)-2)
	for _, arg := range args[2:] {
		p, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: bad probability %q\n", arg)
			os.Exit(1)
		}
		prob = append(prob, p)
	}

	circuit, err := qmcsim.GenerateCircuit(nqubits, ngates, prob, rngstream.New(*seed))
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
	if _, err = circuit.WriteTo(os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}
