package core

import (
	"math"
	"time"
)

// Airtime estimates the time on air in milliseconds of a LoRa frame of length
// bytes. codingRate is the denominator of 4/x and bandwidth is in kHz.
func Airtime(length int, spreadingFactor uint8, explicitHeader, lowDataRate bool, codingRate uint8, bandwidth float64) float64 {
	sf := float64(spreadingFactor)
	h, de := 0.0, 0.0
	if explicitHeader {
		h = 1
	}
	if lowDataRate {
		de = 1
	}
	symbolTime := math.Pow(2, sf) / bandwidth
	payload := math.Ceil((8*float64(length)-4*sf+28+16-20*(1-h))/(4*(sf-2*de))) * float64(codingRate)
	return symbolTime * (8 + math.Max(payload, 0))
}

// DutyInterval is the silence required after a transmission of the given
// airtime so that the radio stays within duty.
func DutyInterval(airtime, duty float64) time.Duration {
	return time.Duration(math.Ceil(airtime/duty)) * time.Millisecond
}
