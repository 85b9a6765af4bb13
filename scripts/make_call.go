package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/sj-distributor/SmartTalk-sub000/pkg/gateway"
	telephony "github.com/sj-distributor/SmartTalk-sub000/pkg/telephony/twilio"
)

func main() {
	configPath := flag.String("config", "examples/gateway/config.local.yaml", "")
	from := flag.String("from", "", "")
	to := flag.String("to", "", "")
	voiceURL := flag.String("voice_url", "", "")
	flag.Parse()
	if *to == "" {
		fmt.Println("usage: make_call -to=+456 [-from=+123] [-config=...]")
		os.Exit(1)
	}
	cfg, err := gateway.LoadConfig(*configPath)
	if err != nil {
		fmt.Println("config error:", err)
		os.Exit(1)
	}
	dialer := telephony.NewDialer(cfg.Twilio)
	callSID, err := dialer.Dial(context.Background(), *to, *from, *voiceURL)
	if err != nil {
		fmt.Println("call error:", err)
		os.Exit(1)
	}
	fmt.Println("call_sid:", callSID)
}
