// Command qrdecode reads a QR code image from disk and prints its
// decoded payload.
//
// This program is for educational purposes only!
//
// It uses this module's own implementation of the QR decoding pipeline,
// built on a generic GF(256) / Reed-Solomon foundation rather than a
// third-party barcode library.
package main

import (
	"fmt"
	"os"

	"github.com/jalphad/qrvision/reader"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		return
	}

	verbose := false
	imagePath := os.Args[1]
	if os.Args[1] == "-v" {
		if len(os.Args) < 3 {
			printUsage()
			os.Exit(1)
		}
		verbose = true
		imagePath = os.Args[2]
	}

	fmt.Println("=== QR Code Decoding ===")
	result, err := reader.DecodeFile(imagePath)
	if err != nil {
		fmt.Printf("Error decoding QR code: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\n=== DECODING RESULTS ===")
	fmt.Printf("Message: %q\n", result.Text)
	fmt.Printf("Version: %d\n", result.Version)
	fmt.Printf("Error Correction Level: %s\n", result.ECCLevel)

	if verbose {
		fmt.Printf("Raw data codewords: %d\n", len(result.RawBytes))
		if len(result.ByteSegments) > 0 {
			fmt.Printf("Byte segments: %d\n", len(result.ByteSegments))
		}
		if result.StructuredAppend != nil {
			fmt.Printf("Structured append: sequence=%#x parity=%#x\n",
				result.StructuredAppend.SequenceNumber, result.StructuredAppend.ParityData)
		}
	}
}

func printUsage() {
	fmt.Println("QR Code Decoder")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  qrdecode [-v] <qr_code_image>")
	fmt.Println()
	fmt.Println("Arguments:")
	fmt.Println("  qr_code_image    Path to QR code image (PNG, JPEG, GIF)")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -v               Verbose mode (show extra decoding detail)")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  qrdecode qr_code.png")
	fmt.Println("  qrdecode -v my_qr_code.jpg")
}
