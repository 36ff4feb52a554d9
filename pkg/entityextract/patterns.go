package entityextract

// productPatterns is the curated product pattern library: regex fragments
// matching the named financial products and facilities a banking
// knowledge base's documents actually describe, grouped by product
// family below. Extend in place as new products are onboarded.
var productPatterns = []string{
	// FX, rates, and other derivatives
	`fx forward(?:s)?`,
	`foreign exchange forward(?:s)?`,
	`currency forward contract(?:s)?`,
	`fx swap(?:s)?`,
	`currency swap(?:s)?`,
	`cross[- ]currency swap(?:s)?`,
	`non[- ]deliverable forward(?:s)?`,
	`fx spot transaction(?:s)?`,
	`fx option(?:s)?`,
	`vanilla option(?:s)?`,
	`barrier option(?:s)?`,
	`knock[- ]in option(?:s)?`,
	`knock[- ]out option(?:s)?`,
	`digital option(?:s)?`,
	`asian option(?:s)?`,
	`interest rate swap(?:s)?`,
	`interest rate cap(?:s)?`,
	`interest rate collar(?:s)?`,
	`interest rate floor(?:s)?`,
	`basis swap(?:s)?`,
	`overnight index swap(?:s)?`,
	`forward rate agreement(?:s)?`,
	`equity swap(?:s)?`,
	`total return swap(?:s)?`,
	`credit default swap(?:s)?`,
	`variance swap(?:s)?`,
	`commodity swap(?:s)?`,
	`futures contract(?:s)?`,
	`exchange[- ]traded fund(?:s)?`,
	`structured note(?:s)?`,

	// Trade finance and guarantees
	`letter of credit(?:s)?`,
	`standby letter of credit(?:s)?`,
	`documentary credit(?:s)?`,
	`documentary collection(?:s)?`,
	`bank guarantee(?:s)?`,
	`performance bond(?:s)?`,
	`bid bond(?:s)?`,
	`advance payment guarantee(?:s)?`,
	`export credit insurance`,
	`import financing`,
	`invoice discounting`,
	`invoice factoring`,
	`supply chain finance`,
	`receivables purchase agreement(?:s)?`,
	`forfaiting`,

	// Lending and credit facilities
	`revolving credit facilit(?:y|ies)`,
	`overdraft facilit(?:y|ies)`,
	`term loan(?:s)?`,
	`bridge loan(?:s)?`,
	`syndicated loan(?:s)?`,
	`club loan(?:s)?`,
	`asset[- ]based lending`,
	`leveraged loan(?:s)?`,
	`mezzanine financing`,
	`working capital facilit(?:y|ies)`,
	`trade finance facilit(?:y|ies)`,
	`construction loan(?:s)?`,
	`bridging loan(?:s)?`,
	`project finance facilit(?:y|ies)`,
	`equipment finance lease(?:s)?`,
	`finance lease(?:s)?`,
	`operating lease(?:s)?`,
	`hire purchase agreement(?:s)?`,
	`personal loan(?:s)?`,
	`auto loan(?:s)?`,

	// Deposits and cash management
	`term deposit(?:s)?`,
	`certificate of deposit(?:s)?`,
	`money market fund(?:s)?`,
	`money market deposit account(?:s)?`,
	`sweep account(?:s)?`,
	`notice deposit account(?:s)?`,
	`call deposit account(?:s)?`,
	`escrow account(?:s)?`,
	`cash management account(?:s)?`,
	`zero balance account(?:s)?`,
	`nostro account(?:s)?`,
	`vostro account(?:s)?`,
	`fixed deposit(?:s)?`,
	`recurring deposit(?:s)?`,
	`current account(?:s)?`,

	// Securities and fixed income
	`commercial paper`,
	`mortgage[- ]backed securit(?:y|ies)`,
	`asset[- ]backed securit(?:y|ies)`,
	`collateralized debt obligation(?:s)?`,
	`collateralized loan obligation(?:s)?`,
	`repurchase agreement(?:s)?`,
	`reverse repo(?:s)?`,
	`treasury bill(?:s)?`,
	`treasury bond(?:s)?`,
	`treasury note(?:s)?`,
	`corporate bond(?:s)?`,
	`municipal bond(?:s)?`,
	`convertible bond(?:s)?`,
	`floating rate note(?:s)?`,
	`perpetual bond(?:s)?`,
	`zero[- ]coupon bond(?:s)?`,
	`covered bond(?:s)?`,
	`green bond(?:s)?`,
	`sukuk`,
	`eurobond(?:s)?`,

	// Cards and payments
	`credit card(?:s)?`,
	`debit card(?:s)?`,
	`prepaid card(?:s)?`,
	`corporate card(?:s)?`,
	`purchasing card(?:s)?`,
	`virtual card(?:s)?`,
	`wire transfer(?:s)?`,
	`swift payment(?:s)?`,
	`real[- ]time payment(?:s)?`,
	`direct debit(?:s)?`,
	`standing order(?:s)?`,
	`bulk payment file(?:s)?`,
	`cross[- ]border payment(?:s)?`,
	`instant payment(?:s)?`,
	`merchant acquiring service(?:s)?`,

	// Wealth, insurance, and investment products
	`mutual fund(?:s)?`,
	`unit trust(?:s)?`,
	`exchange[- ]traded note(?:s)?`,
	`hedge fund(?:s)?`,
	`private equity fund(?:s)?`,
	`pension fund(?:s)?`,
	`annuity contract(?:s)?`,
	`whole life insurance polic(?:y|ies)`,
	`term life insurance polic(?:y|ies)`,
	`key person insurance`,
	`trade credit insurance`,
	`property insurance polic(?:y|ies)`,
	`business interruption insurance`,
	`directors and officers insurance`,
	`professional indemnity insurance`,

	// Treasury and structured risk-management products
	`liquidity facilit(?:y|ies)`,
	`committed facilit(?:y|ies)`,
	`uncommitted facilit(?:y|ies)`,
	`back[- ]to[- ]back loan(?:s)?`,
	`intercompany loan(?:s)?`,
	`cash pooling arrangement(?:s)?`,
	`notional pooling arrangement(?:s)?`,
	`master netting agreement(?:s)?`,
	`collateral management agreement(?:s)?`,
	`margin loan(?:s)?`,
	`securities lending agreement(?:s)?`,
	`repo financing facilit(?:y|ies)`,
	`structured deposit(?:s)?`,
	`dual currency deposit(?:s)?`,
	`participating forward(?:s)?`,

	// Additional structured and specialty products
	`accumulator contract(?:s)?`,
	`target redemption forward(?:s)?`,
	`range accrual note(?:s)?`,
	`callable bond(?:s)?`,
	`putable bond(?:s)?`,
	`warrant(?:s)?`,
	`depositary receipt(?:s)?`,
	`collateralized mortgage obligation(?:s)?`,
	`payment protection insurance`,
	`trade receivables securitisation`,
}

// termPatterns is the curated contract/term pattern library: regex
// fragments matching the risk, legal, regulatory, operational, and
// accounting vocabulary a banking knowledge base's documents use,
// grouped by domain below.
var termPatterns = []string{
	// Risk and pricing terms
	`counterparty risk`,
	`credit risk`,
	`market risk`,
	`liquidity risk`,
	`operational risk`,
	`settlement risk`,
	`systemic risk`,
	`concentration risk`,
	`reputational risk`,
	`interest rate risk`,
	`foreign exchange risk`,
	`basis risk`,
	`model risk`,
	`legal risk`,
	`compliance risk`,
	`notional amount`,
	`strike price`,
	`maturity date`,
	`value date`,
	`spot rate`,
	`forward rate`,
	`premium`,
	`discount rate`,
	`exchange rate`,
	`implied volatility`,
	`historical volatility`,
	`credit spread`,
	`bid[- ]ask spread`,
	`yield to maturity`,
	`duration risk`,
	`convexity`,
	`delta hedge`,
	`gamma exposure`,
	`vega exposure`,
	`theta decay`,
	`basis point(?:s)?`,
	`yield curve`,
	`credit rating`,
	`credit score`,
	`probability of default`,

	// Collateral and margin
	`margin call`,
	`collateral requirement(?:s)?`,
	`initial margin`,
	`variation margin`,
	`mark[- ]to[- ]market`,
	`haircut percentage`,
	`collateral eligibility`,
	`collateral substitution`,
	`rehypothecation`,
	`margin threshold`,
	`independent amount`,
	`minimum transfer amount`,
	`collateral call`,
	`pledge agreement(?:s)?`,
	`security interest`,

	// Hedging and trading
	`hedge ratio`,
	`hedge effectiveness`,
	`natural hedge`,
	`proxy hedge`,
	`rolling hedge`,
	`static hedge`,
	`dynamic hedge`,
	`overlay strategy`,
	`exposure netting`,
	`notional pooling`,

	// Regulatory and compliance
	`know your customer`,
	`anti[- ]money laundering`,
	`counter[- ]terrorist financing`,
	`sanctions screening`,
	`politically exposed person(?:s)?`,
	`suspicious activity report(?:s)?`,
	`customer due diligence`,
	`enhanced due diligence`,
	`regulatory capital`,
	`capital adequacy ratio`,
	`liquidity coverage ratio`,
	`net stable funding ratio`,
	`risk[- ]weighted asset(?:s)?`,
	`tier (?:1|2) capital`,
	`stress test(?:ing)?`,
	`recovery and resolution plan(?:s)?`,
	`regulatory reporting requirement(?:s)?`,
	`basel(?: ii| iii| iv)`,
	`dodd[- ]frank`,
	`mifid(?: ii)?`,
	`gdpr compliance`,
	`fatca reporting`,
	`common reporting standard`,
	`market abuse regulation`,
	`consumer duty`,
	`whistleblowing procedure(?:s)?`,
	`conflicts of interest polic(?:y|ies)`,
	`code of conduct`,
	`fit and proper assessment`,
	`licensing requirement(?:s)?`,

	// Legal and contract terms
	`due diligence`,
	`grace period`,
	`early termination`,
	`force majeure`,
	`governing law`,
	`dispute resolution`,
	`arbitration clause`,
	`indemnification`,
	`limitation of liability`,
	`assignment clause`,
	`confidentiality agreement`,
	`non[- ]disclosure agreement(?:s)?`,
	`service level agreement`,
	`material adverse change`,
	`representations and warranties`,
	`conditions precedent`,
	`events of default`,
	`cross[- ]default clause`,
	`negative pledge clause`,
	`pari passu clause`,
	`subordination agreement(?:s)?`,
	`guarantee agreement(?:s)?`,
	`novation agreement(?:s)?`,
	`waiver letter(?:s)?`,
	`amendment agreement(?:s)?`,
	`side letter(?:s)?`,
	`termination fee(?:s)?`,
	`renewal term`,
	`notice period`,
	`severability clause`,

	// Operations and process terms
	`key performance indicator(?:s)?`,
	`onboarding process`,
	`compliance review`,
	`audit trail`,
	`reconciliation process`,
	`exception handling`,
	`escalation procedure(?:s)?`,
	`straight[- ]through processing`,
	`batch processing cycle`,
	`trade confirmation process`,
	`settlement instruction(?:s)?`,
	`payment cut[- ]off time`,
	`value[- ]dating convention`,
	`cooling[- ]off period`,
	`account opening process`,
	`customer verification process`,
	`risk assessment questionnaire`,
	`periodic review cycle`,
	`transaction monitoring process`,
	`chargeback process`,
	`dispute handling procedure(?:s)?`,
	`complaint handling process`,
	`service request ticket(?:s)?`,
	`change request process`,
	`incident management procedure(?:s)?`,

	// Accounting and reporting terms
	`fair value measurement`,
	`amortized cost basis`,
	`impairment charge(?:s)?`,
	`expected credit loss`,
	`provision for loan losses`,
	`balance sheet exposure`,
	`off[- ]balance sheet item(?:s)?`,
	`income statement impact`,
	`accrued interest`,
	`deferred tax asset(?:s)?`,
	`deferred tax liabilit(?:y|ies)`,
	`goodwill impairment`,
	`depreciation schedule`,
	`amortization schedule`,
	`hedge accounting treatment`,
	`consolidated financial statement(?:s)?`,
	`regulatory disclosure requirement(?:s)?`,
	`financial covenant(?:s)?`,
	`leverage ratio`,
	`debt service coverage ratio`,

	// Governance and strategy terms
	`board resolution(?:s)?`,
	`committee charter`,
	`risk appetite statement`,
	`risk tolerance level`,
	`governance framework`,
	`delegation of authority`,
	`segregation of duties`,
	`three lines of defense`,
	`internal control framework`,
	`management oversight`,
	`strategic plan review`,
	`business continuity plan(?:s)?`,
	`disaster recovery plan(?:s)?`,
	`crisis management protocol`,
	`vendor risk assessment`,

	// Market structure and execution terms
	`best execution polic(?:y|ies)`,
	`order routing logic`,
	`trade booking process`,
	`pre[- ]trade compliance check`,
	`post[- ]trade reconciliation`,
	`clearing house membership`,
	`central counterparty clearing`,
	`give[- ]up agreement(?:s)?`,
	`prime brokerage agreement(?:s)?`,
	`execution venue selection`,
	`algorithmic trading strateg(?:y|ies)`,
	`dark pool liquidity`,
	`market making activit(?:y|ies)`,
	`price discovery mechanism`,
	`trade allocation process`,

	// Settlement and convention terms
	`tenor`,
	`delivery versus payment`,
	`settlement netting arrangement`,
	`payment versus payment`,
	`true[- ]up adjustment`,
}
