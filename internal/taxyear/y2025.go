package taxyear

import (
	"github.com/shopspring/decimal"

	"github.com/Veraticus/the-tax-must-flow/internal/model"
	"github.com/Veraticus/the-tax-must-flow/internal/money"
)

func usd(dollars int64) money.Amount { return money.FromDollars(dollars) }

func rate(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// perStatus fills a table in FilingStatuses order.
func perStatus[T any](single, joint, separate, head, survivor T) ByStatus[T] {
	return ByStatus[T]{
		model.Single:                    single,
		model.MarriedJointly:            joint,
		model.MarriedSeparately:         separate,
		model.HeadOfHousehold:           head,
		model.QualifyingSurvivingSpouse: survivor,
	}
}

func schedule(thresholds ...int64) Schedule {
	rates := []string{"0.10", "0.12", "0.22", "0.24", "0.32", "0.35", "0.37"}
	s := make(Schedule, len(thresholds))
	for i, t := range thresholds {
		s[i] = Bracket{Threshold: usd(t), Rate: rate(rates[i])}
	}
	return s
}

func stepPhaseOut(threshold, step int64, reduction string) PhaseOut {
	return PhaseOut{Threshold: usd(threshold), Step: usd(step), Reduction: rate(reduction), Floor: money.Zero}
}

func ratioPhaseOut(start, end int64) RatioPhaseOut {
	return RatioPhaseOut{Start: usd(start), End: usd(end)}
}

func saverTiers(fifty, twenty, ten int64) []RateTier {
	return []RateTier{
		{UpTo: usd(fifty), Rate: rate("0.50")},
		{UpTo: usd(twenty), Rate: rate("0.20")},
		{UpTo: usd(ten), Rate: rate("0.10")},
	}
}

func y2025() *Parameters {
	single := schedule(0, 11_925, 48_475, 103_350, 197_300, 250_525, 626_350)
	joint := schedule(0, 23_850, 96_950, 206_700, 394_600, 501_050, 751_600)

	return &Parameters{
		Year:     2025,
		Rounding: money.RoundWholeDollar,
		Brackets: perStatus(
			single,
			joint,
			schedule(0, 11_925, 48_475, 103_350, 197_300, 250_525, 375_800),
			schedule(0, 17_000, 64_850, 103_350, 197_300, 250_500, 626_350),
			joint,
		),
		TaxTable: TaxTable{
			Ceiling: usd(100_000),
			Bands: []TableBand{
				{From: usd(0), To: usd(5), Width: usd(5)},
				{From: usd(5), To: usd(25), Width: usd(10)},
				{From: usd(25), To: usd(3_000), Width: usd(25)},
				{From: usd(3_000), To: usd(100_000), Width: usd(50)},
			},
		},
		CapitalGains: CapitalGains{
			ZeroRateMax:    perStatus(usd(48_350), usd(96_700), usd(48_350), usd(64_750), usd(96_700)),
			FifteenRateMax: perStatus(usd(533_400), usd(600_050), usd(300_000), usd(566_700), usd(600_050)),
			LowRate:        rate("0"),
			MidRate:        rate("0.15"),
			HighRate:       rate("0.20"),
			LossLimit:      perStatus(usd(3_000), usd(3_000), usd(1_500), usd(3_000), usd(3_000)),
		},
		StandardDeduction: StandardDeduction{
			Base:                    perStatus(usd(15_750), usd(31_500), usd(15_750), usd(23_625), usd(31_500)),
			AdditionalUnmarried:     usd(2_000),
			AdditionalMarried:       usd(1_600),
			DependentMinimum:        usd(1_350),
			DependentEarnedAddition: usd(450),
			AdditionalAge:           65,
		},
		Itemized: Itemized{
			MedicalFloorRate:  rate("0.075"),
			SALTCap:           perStatus(usd(40_000), usd(40_000), usd(20_000), usd(40_000), usd(40_000)),
			SALTThreshold:     perStatus(usd(500_000), usd(500_000), usd(250_000), usd(500_000), usd(500_000)),
			SALTReductionRate: rate("0.30"),
			SALTFloor:         perStatus(usd(10_000), usd(10_000), usd(5_000), usd(10_000), usd(10_000)),
		},
		Adjustments: Adjustments{
			EducatorExpenseCap: usd(300),
			StudentLoanCap:     usd(2_500),
			StudentLoanPhaseOut: perStatus(
				ratioPhaseOut(85_000, 100_000),
				ratioPhaseOut(170_000, 200_000),
				ratioPhaseOut(85_000, 100_000),
				ratioPhaseOut(85_000, 100_000),
				ratioPhaseOut(85_000, 100_000),
			),
		},
		Schedule1A: Schedule1A{
			TipsCap:     usd(25_000),
			OvertimeCap: perStatus(usd(12_500), usd(25_000), usd(12_500), usd(12_500), usd(12_500)),
			IncomePhaseOut: perStatus(
				stepPhaseOut(150_000, 1_000, "100"),
				stepPhaseOut(300_000, 1_000, "100"),
				stepPhaseOut(150_000, 1_000, "100"),
				stepPhaseOut(150_000, 1_000, "100"),
				stepPhaseOut(150_000, 1_000, "100"),
			),
			SeniorAmount: usd(6_000),
			SeniorAge:    65,
			SeniorPhaseOut: perStatus(
				stepPhaseOut(75_000, 1, "0.06"),
				stepPhaseOut(150_000, 1, "0.06"),
				stepPhaseOut(75_000, 1, "0.06"),
				stepPhaseOut(75_000, 1, "0.06"),
				stepPhaseOut(75_000, 1, "0.06"),
			),
		},
		QBI: QBI{
			Rate:         rate("0.20"),
			Threshold:    perStatus(usd(197_300), usd(394_600), usd(197_300), usd(197_300), usd(197_300)),
			PhaseInRange: perStatus(usd(50_000), usd(100_000), usd(50_000), usd(50_000), usd(50_000)),
			WageRate:     rate("0.50"),
			AltWageRate:  rate("0.25"),
			UBIARate:     rate("0.025"),
		},
		SelfEmployment: SelfEmployment{
			SocialSecurityRate: rate("0.124"),
			MedicareRate:       rate("0.029"),
			WageBase:           usd(176_100),
			MinimumEarnings:    usd(400),
		},
		AdditionalMedicare: Surtax{
			Rate:      rate("0.009"),
			Threshold: perStatus(usd(200_000), usd(250_000), usd(125_000), usd(200_000), usd(200_000)),
		},
		NIIT: Surtax{
			Rate:      rate("0.038"),
			Threshold: perStatus(usd(200_000), usd(250_000), usd(125_000), usd(200_000), usd(250_000)),
		},
		AMT: AMT{
			Exemption: perStatus(usd(88_100), usd(137_000), usd(68_500), usd(88_100), usd(137_000)),
			PhaseOut: perStatus(
				stepPhaseOut(626_350, 1, "0.25"),
				stepPhaseOut(1_252_700, 1, "0.25"),
				stepPhaseOut(626_350, 1, "0.25"),
				stepPhaseOut(626_350, 1, "0.25"),
				stepPhaseOut(1_252_700, 1, "0.25"),
			),
			LowRate:   rate("0.26"),
			HighRate:  rate("0.28"),
			RateBreak: perStatus(usd(239_100), usd(239_100), usd(119_550), usd(239_100), usd(239_100)),
		},
		ChildTaxCredit: ChildTaxCredit{
			PerChild:          usd(2_200),
			PerOtherDependent: usd(500),
			ChildAgeLimit:     17,
			PhaseOut: perStatus(
				stepPhaseOut(200_000, 1_000, "50"),
				stepPhaseOut(400_000, 1_000, "50"),
				stepPhaseOut(200_000, 1_000, "50"),
				stepPhaseOut(200_000, 1_000, "50"),
				stepPhaseOut(200_000, 1_000, "50"),
			),
			RefundablePerChild: usd(1_700),
			EarnedIncomeFloor:  usd(2_500),
			EarnedIncomeRate:   rate("0.15"),
			AlternativeMinimum: 3,
		},
		DependentCare: DependentCare{
			OnePersonLimit:  usd(3_000),
			TwoOrMoreLimit:  usd(6_000),
			QualifyingAge:   13,
			MaxRate:         rate("0.35"),
			MinRate:         rate("0.20"),
			RateThreshold:   usd(15_000),
			RateStep:        usd(2_000),
			RateStepPercent: rate("0.01"),
		},
		Education: Education{
			AOTCFirstTier:   usd(2_000),
			AOTCSecondTier:  usd(2_000),
			AOTCSecondRate:  rate("0.25"),
			RefundableShare: rate("0.40"),
			LLCRate:         rate("0.20"),
			LLCExpenseLimit: usd(10_000),
			PhaseOut: perStatus(
				ratioPhaseOut(80_000, 90_000),
				ratioPhaseOut(160_000, 180_000),
				ratioPhaseOut(80_000, 90_000),
				ratioPhaseOut(80_000, 90_000),
				ratioPhaseOut(80_000, 90_000),
			),
		},
		SaversCredit: SaversCredit{
			Tiers: perStatus(
				saverTiers(23_750, 25_500, 39_500),
				saverTiers(47_500, 51_000, 79_000),
				saverTiers(23_750, 25_500, 39_500),
				saverTiers(35_625, 38_250, 59_250),
				saverTiers(23_750, 25_500, 39_500),
			),
			ContributionLimit: usd(2_000),
		},
		ForeignTax: ForeignTax{
			DeMinimis: perStatus(usd(300), usd(600), usd(300), usd(300), usd(300)),
		},
		CreditOrder: []CreditKind{
			CreditForeignTax,
			CreditDependentCare,
			CreditEducation,
			CreditRetirementSavings,
			CreditChildTax,
		},
		EITC: EITC{
			Schedules: []EITCSchedule{
				{CreditRate: rate("0.0765"), EarnedIncomeAmount: usd(8_490), MaxCredit: usd(649), PhaseOutStart: usd(10_620), PhaseOutStartJoint: usd(17_730), PhaseOutRate: rate("0.0765")},
				{CreditRate: rate("0.34"), EarnedIncomeAmount: usd(12_730), MaxCredit: usd(4_328), PhaseOutStart: usd(23_350), PhaseOutStartJoint: usd(30_470), PhaseOutRate: rate("0.1598")},
				{CreditRate: rate("0.40"), EarnedIncomeAmount: usd(17_880), MaxCredit: usd(7_152), PhaseOutStart: usd(23_350), PhaseOutStartJoint: usd(30_470), PhaseOutRate: rate("0.2106")},
				{CreditRate: rate("0.45"), EarnedIncomeAmount: usd(17_880), MaxCredit: usd(8_046), PhaseOutStart: usd(23_350), PhaseOutStartJoint: usd(30_470), PhaseOutRate: rate("0.2106")},
			},
			InvestmentIncomeLimit: usd(11_950),
			TableCeiling:          usd(68_675),
			BandWidth:             usd(50),
			ChildAgeLimit:         19,
			StudentAgeLimit:       24,
			ChildlessMinAge:       25,
			ChildlessMaxAge:       64,
		},
	}
}
