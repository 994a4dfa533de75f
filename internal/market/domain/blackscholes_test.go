package domain

import (
	"errors"
	"math"
	"testing"
)

const (
	testSpot   = 21700.0
	testRate   = 0.065
	testVol    = 0.15
	testYield  = 0.012
	testExpiry = 30.0 / 365.0
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestCallPriceAtTheMoney(t *testing.T) {
	price, err := CallPrice(testSpot, testSpot, testExpiry, testRate, testVol, testYield)
	if err != nil {
		t.Fatalf("CallPrice returned error: %v", err)
	}
	if !almostEqual(price, 421.7, 2) {
		t.Fatalf("ATM call price = %.4f, want 421.7 +- 2", price)
	}
}

func TestPutPriceAtTheMoney(t *testing.T) {
	price, err := PutPrice(testSpot, testSpot, testExpiry, testRate, testVol, testYield)
	if err != nil {
		t.Fatalf("PutPrice returned error: %v", err)
	}
	if !almostEqual(price, 327.6, 2) {
		t.Fatalf("ATM put price = %.4f, want 327.6 +- 2", price)
	}
}

func TestPutCallParity(t *testing.T) {
	strikes := []float64{21000, 21500, 21700, 22000, 22500}
	for _, k := range strikes {
		call, err := CallPrice(testSpot, k, testExpiry, testRate, testVol, testYield)
		if err != nil {
			t.Fatalf("CallPrice(%v): %v", k, err)
		}
		put, err := PutPrice(testSpot, k, testExpiry, testRate, testVol, testYield)
		if err != nil {
			t.Fatalf("PutPrice(%v): %v", k, err)
		}

		lhs := call - put
		rhs := testSpot*math.Exp(-testYield*testExpiry) - k*math.Exp(-testRate*testExpiry)
		if !almostEqual(lhs, rhs, 1e-6) {
			t.Fatalf("parity violated at K=%v: C-P=%.8f, want %.8f", k, lhs, rhs)
		}
	}
}

func TestExpiredOptionReturnsIntrinsic(t *testing.T) {
	call, err := CallPrice(22000, 21700, 0, testRate, testVol, testYield)
	if err != nil {
		t.Fatalf("expired call: %v", err)
	}
	if call != 300 {
		t.Fatalf("expired ITM call = %v, want 300", call)
	}

	put, err := PutPrice(22000, 21700, 0, testRate, testVol, testYield)
	if err != nil {
		t.Fatalf("expired put: %v", err)
	}
	if put != 0 {
		t.Fatalf("expired OTM put = %v, want 0", put)
	}
}

func TestPriceNeverNegative(t *testing.T) {
	// 深度虚值的看涨期权，价格应截断在 0 而不是负数
	price, err := CallPrice(100, 10000, 0.001, testRate, 0.01, testYield)
	if err != nil {
		t.Fatalf("deep OTM call: %v", err)
	}
	if price < 0 {
		t.Fatalf("price = %v, want >= 0", price)
	}
}

func TestD1D2DomainErrors(t *testing.T) {
	cases := []struct {
		name           string
		s, k, t, sigma float64
		wantErr        error
	}{
		{"zero time", testSpot, testSpot, 0, testVol, ErrNonPositiveTime},
		{"negative time", testSpot, testSpot, -0.1, testVol, ErrNonPositiveTime},
		{"zero volatility", testSpot, testSpot, testExpiry, 0, ErrNonPositiveVolatility},
		{"negative volatility", testSpot, testSpot, testExpiry, -0.2, ErrNonPositiveVolatility},
		{"zero spot", 0, testSpot, testExpiry, testVol, ErrNonPositivePrice},
		{"zero strike", testSpot, 0, testExpiry, testVol, ErrNonPositivePrice},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := D1D2(tc.s, tc.k, tc.t, testRate, tc.sigma, testYield)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("D1D2 error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestPricingRejectsNonPositiveVolatility(t *testing.T) {
	if _, err := CallPrice(testSpot, testSpot, testExpiry, testRate, 0, testYield); err == nil {
		t.Fatal("CallPrice accepted zero volatility")
	}
	if _, err := PutPrice(testSpot, testSpot, testExpiry, testRate, -1, testYield); err == nil {
		t.Fatal("PutPrice accepted negative volatility")
	}
}

func TestGreeksSharedBetweenCallAndPut(t *testing.T) {
	call, err := ComputeGreeks(OptionTypeCall, testSpot, testSpot, testExpiry, testRate, testVol, testYield)
	if err != nil {
		t.Fatalf("call greeks: %v", err)
	}
	put, err := ComputeGreeks(OptionTypePut, testSpot, testSpot, testExpiry, testRate, testVol, testYield)
	if err != nil {
		t.Fatalf("put greeks: %v", err)
	}

	if !almostEqual(call.Gamma, put.Gamma, 1e-12) {
		t.Fatalf("gamma differs: call=%v put=%v", call.Gamma, put.Gamma)
	}
	if !almostEqual(call.Vega, put.Vega, 1e-12) {
		t.Fatalf("vega differs: call=%v put=%v", call.Vega, put.Vega)
	}
}

func TestGreeksSigns(t *testing.T) {
	call, err := ComputeGreeks(OptionTypeCall, testSpot, testSpot, testExpiry, testRate, testVol, testYield)
	if err != nil {
		t.Fatalf("call greeks: %v", err)
	}
	if call.Delta <= 0 || call.Delta >= 1 {
		t.Fatalf("call delta = %v, want in (0, 1)", call.Delta)
	}
	if call.Theta >= 0 {
		t.Fatalf("ATM call theta = %v, want < 0", call.Theta)
	}

	put, err := ComputeGreeks(OptionTypePut, testSpot, testSpot, testExpiry, testRate, testVol, testYield)
	if err != nil {
		t.Fatalf("put greeks: %v", err)
	}
	if put.Delta >= 0 || put.Delta <= -1 {
		t.Fatalf("put delta = %v, want in (-1, 0)", put.Delta)
	}
	if put.Rho >= 0 {
		t.Fatalf("put rho = %v, want < 0", put.Rho)
	}
}

func TestGreeksZeroAtExpiry(t *testing.T) {
	g, err := ComputeGreeks(OptionTypeCall, testSpot, testSpot, 0, testRate, testVol, testYield)
	if err != nil {
		t.Fatalf("expired greeks: %v", err)
	}
	if g != (Greeks{}) {
		t.Fatalf("expired greeks = %+v, want all zero", g)
	}
}

func TestIntrinsicAndTimeValue(t *testing.T) {
	if v := IntrinsicValue(22000, 21700, OptionTypeCall); v != 300 {
		t.Fatalf("call intrinsic = %v, want 300", v)
	}
	if v := IntrinsicValue(22000, 21700, OptionTypePut); v != 0 {
		t.Fatalf("put intrinsic = %v, want 0", v)
	}
	if v := TimeValue(350, 22000, 21700, OptionTypeCall); v != 50 {
		t.Fatalf("time value = %v, want 50", v)
	}
	// 价格低于内在价值时时间价值截断在 0
	if v := TimeValue(250, 22000, 21700, OptionTypeCall); v != 0 {
		t.Fatalf("time value = %v, want 0", v)
	}
}
